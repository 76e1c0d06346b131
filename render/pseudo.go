package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dennis-doyensec/r2pickledec/internal/pyquote"
	"github.com/dennis-doyensec/r2pickledec/pyobj"
)

// Pseudo renders a pyobj graph as Python-like pseudocode: a flat sequence
// of statements, one per declared variable plus one per mutation a What's
// operator chain records.
//
// The "first occurrence gets a declaration, later occurrences are a bare
// name" rule is enforced by caching the assigned name on Obj.Varname
// directly - a second visit to the same pointer always finds Varname
// already set and short-circuits to a name reference.
//
// Self-reference is caught by busy instead of by the PY_SPLIT markers the
// interpreter leaves behind: an object is marked busy for the duration of
// its own declare call, and any element loop that finds its own container
// (or any other object still mid-declaration) defers that element to a
// statement appended right after the container's own assignment, instead
// of inlining a reference to a variable that doesn't exist yet. A Split is
// inserted unconditionally after every REDUCE, whether or not its argument
// subtree actually loops back - busy already finds the real loops, so a
// Split element is just skipped here rather than acted on a second time.
type Pseudo struct {
	stmts  []string
	varSeq int

	busy    map[*pyobj.Obj]bool
	pending [][]string
}

// NewPseudo returns an empty pseudocode renderer.
func NewPseudo() *Pseudo {
	return &Pseudo{busy: make(map[*pyobj.Obj]bool)}
}

// Render emits one statement per item left on stack (normally just one,
// for a well-formed pickle) and, if returnTop is true, a trailing
// `return <expr>` for the last item - the driver's top-of-stack rendering
// toggle.
func (p *Pseudo) Render(stack []*pyobj.Obj, returnTop bool) string {
	for i, o := range stack {
		expr := p.exprFor(o)
		last := i == len(stack)-1
		switch {
		case returnTop && last:
			p.stmts = append(p.stmts, "return "+expr)
		case o.Varname == "":
			// not hoisted by exprFor (a bare scalar/tuple/func root) and
			// not the returned value either - still surface it as a
			// statement so a truncated run's leftover stack is visible.
			p.stmts = append(p.stmts, expr)
		}
	}
	return strings.Join(p.stmts, "\n")
}

func (p *Pseudo) pushPending() { p.pending = append(p.pending, nil) }

func (p *Pseudo) popPending() []string {
	n := len(p.pending) - 1
	top := p.pending[n]
	p.pending = p.pending[:n]
	return top
}

func (p *Pseudo) addPending(s string) {
	if n := len(p.pending) - 1; n >= 0 {
		p.pending[n] = append(p.pending[n], s)
		return
	}
	p.stmts = append(p.stmts, s)
}

// needsHoist reports whether o must always get its own "varname = ..."
// statement rather than being inlined at its use site: every mutable
// container type unconditionally (it might gain a deferred insert from a
// nested self-reference, or simply reads clearer as a named value), every
// What (it is multiple statements, not one expression), and anything else
// the interpreter left with more than one owner.
func needsHoist(o *pyobj.Obj) bool {
	switch o.Type {
	case pyobj.TypeList, pyobj.TypeDict, pyobj.TypeSet, pyobj.TypeFrozenSet, pyobj.TypeWhat:
		return true
	default:
		return o.RefCount() > 1
	}
}

func (p *Pseudo) nameFor(o *pyobj.Obj) string {
	if o.MemoID != pyobj.UnsetMemoID {
		return fmt.Sprintf("var_%d", o.MemoID)
	}
	name := fmt.Sprintf("var_%d", p.varSeq)
	p.varSeq++
	return name
}

// exprFor renders o as an inline expression, hoisting it into its own
// declaration first if needsHoist says so.
func (p *Pseudo) exprFor(o *pyobj.Obj) string {
	if o == nil {
		return "None"
	}
	if o.Varname != "" {
		return o.Varname
	}
	if needsHoist(o) {
		return p.declare(o)
	}
	return p.literal(o)
}

func (p *Pseudo) exprForAll(items []*pyobj.Obj) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = p.exprFor(it)
	}
	return strings.Join(parts, ", ")
}

// declare assigns o a stable name, emits its statement(s), and returns
// the name. Safe to call more than once for the same object - the second
// call finds Varname already set and returns immediately.
func (p *Pseudo) declare(o *pyobj.Obj) string {
	if o.Varname != "" {
		return o.Varname
	}
	name := p.nameFor(o)
	o.Varname = name
	p.busy[o] = true
	p.pushPending()

	if o.Type == pyobj.TypeWhat {
		p.emitWhat(o)
	} else {
		body := p.literal(o)
		p.stmts = append(p.stmts, name+" = "+body)
	}

	post := p.popPending()
	p.stmts = append(p.stmts, post...)
	delete(p.busy, o)
	return name
}

func (p *Pseudo) deferInsert(container, result *pyobj.Obj) {
	if result == nil {
		return
	}
	switch container.Type {
	case pyobj.TypeList:
		p.addPending(fmt.Sprintf("%s.append(%s)", container.Varname, result.Varname))
	case pyobj.TypeSet, pyobj.TypeFrozenSet:
		p.addPending(fmt.Sprintf("%s.add(%s)", container.Varname, result.Varname))
	case pyobj.TypeDict:
		p.addPending(fmt.Sprintf("%s[%s] = %s", container.Varname, result.Varname, result.Varname))
	default:
		p.addPending(fmt.Sprintf("%s.append(%s)", container.Varname, result.Varname))
	}
}

// literal renders o's payload with no declaration wrapper - the caller
// (exprFor or declare) has already decided whether o itself needed one.
func (p *Pseudo) literal(o *pyobj.Obj) string {
	switch o.Type {
	case pyobj.TypeNone:
		return "None"
	case pyobj.TypeBool:
		if o.Bool {
			return "True"
		}
		return "False"
	case pyobj.TypeInt:
		if o.BigInt != nil {
			return o.BigInt.String()
		}
		return strconv.FormatInt(o.Int, 10)
	case pyobj.TypeFloat:
		return strconv.FormatFloat(o.Float, 'g', -1, 64)
	case pyobj.TypeStr:
		return pyquote.Quote(o.Str)
	case pyobj.TypeFunc:
		mod, name := "", ""
		if o.Fn.Module != nil {
			mod = o.Fn.Module.Str
		}
		if o.Fn.Name != nil {
			name = o.Fn.Name.Str
		}
		return fmt.Sprintf("__import__(%s).%s", pyquote.Quote(mod), name)
	case pyobj.TypeTuple:
		parts := p.elemParts(o)
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case pyobj.TypeList:
		return "[" + strings.Join(p.elemParts(o), ", ") + "]"
	case pyobj.TypeSet:
		if len(o.Iter) == 0 {
			return "set()"
		}
		return "{" + strings.Join(p.elemParts(o), ", ") + "}"
	case pyobj.TypeFrozenSet:
		if len(o.Iter) == 0 {
			return "frozenset()"
		}
		return "frozenset({" + strings.Join(p.elemParts(o), ", ") + "})"
	case pyobj.TypeDict:
		return p.dictLiteral(o)
	case pyobj.TypeSplit:
		// a bare Split should never be visited as its own expression -
		// it is always consumed by the container iteration below.
		return "None"
	default:
		return "None"
	}
}

// elemParts renders o.Iter for a List/Tuple/Set/FrozenSet. A trailing
// PY_SPLIT marker carries no render-time meaning (see the Pseudo doc
// comment) and is dropped; a genuine cycle back to an object still
// mid-declaration (o.busy) can't be referenced from inside its own literal
// because the name it would print doesn't exist yet at that point in the
// generated source, so it becomes a deferred post-statement instead.
func (p *Pseudo) elemParts(o *pyobj.Obj) []string {
	var parts []string
	for _, c := range o.Iter {
		if c.Type == pyobj.TypeSplit {
			continue
		}
		if p.busy[c] {
			p.deferInsert(o, c)
			continue
		}
		parts = append(parts, p.exprFor(c))
	}
	return parts
}

func (p *Pseudo) dictLiteral(o *pyobj.Obj) string {
	var parts []string
	items := o.Iter
	for i := 0; i < len(items); {
		k := items[i]
		if k.Type == pyobj.TypeSplit {
			i++
			continue
		}
		if i+1 >= len(items) {
			// malformed (odd length outside of a trailing split) - best
			// effort, the lone key is dropped from the literal.
			break
		}
		v := items[i+1]
		var ks, vs string
		if p.busy[k] {
			p.deferInsert(o, k)
			ks = ""
		} else {
			ks = p.exprFor(k)
		}
		if p.busy[v] {
			p.deferInsert(o, v)
			vs = ""
		} else {
			vs = p.exprFor(v)
		}
		if ks != "" || vs != "" {
			parts = append(parts, ks+": "+vs)
		}
		i += 2
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// emitWhat renders every operation in o's chain as its own statement,
// mirroring dump_what: FAKE_INIT seeds the variable, every later op
// mutates it in place and re-assigns the same name where the call form
// naturally produces a new value (REDUCE, NEWOBJ, INST, OBJ).
func (p *Pseudo) emitWhat(o *pyobj.Obj) {
	name := o.Varname
	for _, op := range o.What {
		switch op.Op {
		case pyobj.OpFakeInit:
			init := p.exprFor(op.Stack[0])
			p.stmts = append(p.stmts, name+" = "+init)

		case pyobj.OpReduce:
			args := p.exprFor(op.Stack[0])
			p.stmts = append(p.stmts, fmt.Sprintf("%s = %s(%s)", name, name, args))

		case pyobj.OpNewObj:
			args := p.exprFor(op.Stack[0])
			p.stmts = append(p.stmts, fmt.Sprintf("%s = %s.__new__(%s, *%s)", name, name, name, args))

		case pyobj.OpBuild:
			state := p.exprFor(op.Stack[0])
			p.stmts = append(p.stmts, fmt.Sprintf("%s.__setstate__(%s)", name, state))

		case pyobj.OpAppend:
			arg := p.exprFor(op.Stack[0])
			p.stmts = append(p.stmts, fmt.Sprintf("%s.append(%s)", name, arg))

		case pyobj.OpAppends:
			args := p.exprForAll(op.Stack)
			p.stmts = append(p.stmts, fmt.Sprintf("%s.extend([%s])", name, args))

		case pyobj.OpSetItem:
			if len(op.Stack) < 2 {
				continue
			}
			key := p.exprFor(op.Stack[0])
			val := p.exprFor(op.Stack[1])
			p.stmts = append(p.stmts, fmt.Sprintf("%s[%s] = %s", name, key, val))

		case pyobj.OpSetItems:
			var pairs []string
			for i := 0; i+1 < len(op.Stack); i += 2 {
				pairs = append(pairs, p.exprFor(op.Stack[i])+": "+p.exprFor(op.Stack[i+1]))
			}
			p.stmts = append(p.stmts, fmt.Sprintf("%s.update({%s})", name, strings.Join(pairs, ", ")))

		case pyobj.OpAddItems:
			args := p.exprForAll(op.Stack)
			p.stmts = append(p.stmts, fmt.Sprintf("%s |= {%s}", name, args))

		case pyobj.OpInst, pyobj.OpObj:
			if len(op.Stack) < 1 {
				continue
			}
			args := p.exprFor(op.Stack[0])
			p.stmts = append(p.stmts, fmt.Sprintf("%s = %s(*%s)", name, name, args))
		}
	}
}
