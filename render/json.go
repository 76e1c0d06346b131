package render

import (
	"strconv"

	"github.com/hokaccha/go-prettyjson"

	"github.com/dennis-doyensec/r2pickledec/pyobj"
)

// JSON renders the same pyobj graph Pseudo does, but as a tree of
// map[string]any/[]any values handed to github.com/hokaccha/go-prettyjson
// for final formatting. The object/array/key shape below is ours;
// prettyjson only owns indentation and terminal-color formatting of the
// finished tree.
type JSON struct {
	varSeq int
	seen   map[*pyobj.Obj]string // varname once an object has been fully described once
}

// NewJSON returns an empty JSON tree builder.
func NewJSON() *JSON {
	return &JSON{seen: make(map[*pyobj.Obj]string)}
}

// Marshal renders stack as a JSON document: {"truncated": bool, "values":
// [...]}, one tree per remaining stack item. Output is pretty-printed
// through go-prettyjson before it reaches the caller.
func (j *JSON) Marshal(stack []*pyobj.Obj, truncated bool) ([]byte, error) {
	values := make([]any, len(stack))
	for i, o := range stack {
		values[i] = j.node(o)
	}
	doc := map[string]any{
		"truncated": truncated,
		"values":    values,
	}
	return prettyjson.Marshal(doc)
}

func (j *JSON) nameFor(o *pyobj.Obj) string {
	if o.MemoID != pyobj.UnsetMemoID {
		return "var_" + strconv.FormatInt(o.MemoID, 10)
	}
	name := "var_" + strconv.Itoa(j.varSeq)
	j.varSeq++
	return name
}

// node returns either a fully described object (first visit) or a
// {"ref": name} marker (every later visit, including a true cycle still
// mid-construction - JSON has no "must be declared before use" ordering
// constraint the way generated source does, so a ref is valid immediately).
func (j *JSON) node(o *pyobj.Obj) any {
	if o == nil {
		return nil
	}
	if name, ok := j.seen[o]; ok {
		return map[string]any{"ref": name}
	}

	needsRef := o.Type == pyobj.TypeList || o.Type == pyobj.TypeDict ||
		o.Type == pyobj.TypeSet || o.Type == pyobj.TypeFrozenSet ||
		o.Type == pyobj.TypeWhat || o.RefCount() > 1

	var name string
	if needsRef {
		name = j.nameFor(o)
		j.seen[o] = name
	}

	out := j.payload(o)
	if m, ok := out.(map[string]any); ok && name != "" {
		m["varname"] = name
	}
	return out
}

func (j *JSON) payload(o *pyobj.Obj) any {
	switch o.Type {
	case pyobj.TypeNone:
		return map[string]any{"type": "none", "value": nil}
	case pyobj.TypeBool:
		return map[string]any{"type": "bool", "value": o.Bool}
	case pyobj.TypeInt:
		if o.BigInt != nil {
			return map[string]any{"type": "int", "value": o.BigInt.String()}
		}
		return map[string]any{"type": "int", "value": o.Int}
	case pyobj.TypeFloat:
		return map[string]any{"type": "float", "value": o.Float}
	case pyobj.TypeStr:
		return map[string]any{"type": "str", "value": o.Str}
	case pyobj.TypeFunc:
		mod, name := "", ""
		if o.Fn.Module != nil {
			mod = o.Fn.Module.Str
		}
		if o.Fn.Name != nil {
			name = o.Fn.Name.Str
		}
		return map[string]any{"type": "func", "module": mod, "name": name}
	case pyobj.TypeTuple:
		return map[string]any{"type": "tuple", "items": j.items(o)}
	case pyobj.TypeList:
		return map[string]any{"type": "list", "items": j.items(o)}
	case pyobj.TypeSet:
		return map[string]any{"type": "set", "items": j.items(o)}
	case pyobj.TypeFrozenSet:
		return map[string]any{"type": "frozenset", "items": j.items(o)}
	case pyobj.TypeDict:
		return map[string]any{"type": "dict", "pairs": j.pairs(o)}
	case pyobj.TypeWhat:
		return map[string]any{"type": "what", "chain": j.chain(o)}
	case pyobj.TypeSplit:
		// render-time bookkeeping only (see render.Pseudo's doc comment);
		// a bare Split is never reached since items/pairs drop it.
		return map[string]any{"type": "split"}
	default:
		return map[string]any{"type": "unknown"}
	}
}

// items skips trailing PY_SPLIT markers: they carry no meaning once the
// graph is frozen for rendering (see render.Pseudo's doc comment). A
// genuine self-reference still round-trips correctly because node() already
// records an object's ref name before recursing into its own payload.
func (j *JSON) items(o *pyobj.Obj) []any {
	out := make([]any, 0, len(o.Iter))
	for _, c := range o.Iter {
		if c.Type == pyobj.TypeSplit {
			continue
		}
		out = append(out, j.node(c))
	}
	return out
}

func (j *JSON) pairs(o *pyobj.Obj) []any {
	out := make([]any, 0, len(o.Iter)/2)
	items := o.Iter
	for i := 0; i < len(items); {
		if items[i].Type == pyobj.TypeSplit {
			i++
			continue
		}
		if i+1 >= len(items) {
			break
		}
		out = append(out, map[string]any{"key": j.node(items[i]), "value": j.node(items[i+1])})
		i += 2
	}
	return out
}

func (j *JSON) chain(o *pyobj.Obj) []any {
	out := make([]any, 0, len(o.What))
	for _, op := range o.What {
		out = append(out, map[string]any{"op": op.Op.String(), "args": j.argList(op.Stack)})
	}
	return out
}

func (j *JSON) argList(args []*pyobj.Obj) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = j.node(a)
	}
	return out
}
