package pvm

import (
	"github.com/dennis-doyensec/r2pickledec/disasm"
	"github.com/dennis-doyensec/r2pickledec/pyobj"
)

// exec dispatches one decoded instruction to its handler. The offset has
// already been recorded on s by the caller (Step) before this runs, since
// several handlers stamp newly created objects with s.offset.
func (s *State) exec(ins disasm.Instruction) error {
	switch ins.Code {
	// meta
	case disasm.OpProto:
		if s.start != s.offset {
			s.Log.Info().Int64("offset", s.offset).Msg("PROTO not at start of pickle")
		} else {
			s.ver = int(ins.Int)
		}
		return nil
	case disasm.OpFrame, disasm.OpStop:
		return nil

	case disasm.OpMark:
		return s.opMark()
	case disasm.OpPop:
		return s.opPop()
	case disasm.OpPopMark:
		return s.opPopMark()
	case disasm.OpDup:
		return s.opDup()
	case disasm.OpNone:
		return s.opNone()

	// ints (disasm.Next already folds INT's "00"/"01" special lines into
	// NEWFALSE/NEWTRUE, so this never sees a boolean in disguise). INT and
	// LONG (the two ASCII-text integer opcodes from protocol 0) are fully
	// decodable by disasm and handled here.
	case disasm.OpInt, disasm.OpBinint, disasm.OpBinint1, disasm.OpBinint2,
		disasm.OpLong, disasm.OpLong1, disasm.OpLong4:
		return s.pushInt(ins.Int, ins.Big)

	// floats
	case disasm.OpFloat, disasm.OpBinfloat:
		return s.pushFloat(ins.Float)

	// strings/bytes - the decompiler doesn't distinguish str/bytes at the
	// object-model level (spec: both render as an escaped literal)
	case disasm.OpString, disasm.OpUnicode, disasm.OpBinunicode8,
		disasm.OpBinbytes8, disasm.OpBytearray8, disasm.OpBinstring,
		disasm.OpBinunicode, disasm.OpBinbytes, disasm.OpShortBinbytes,
		disasm.OpShortBinstring, disasm.OpShortBinunicode:
		if ins.Bytes != nil && ins.Str == "" {
			return s.pushStr(string(ins.Bytes))
		}
		return s.pushStr(ins.Str)

	// class construction
	case disasm.OpObj:
		return s.opObj()
	case disasm.OpInst:
		return s.opInst(ins.Mod, ins.Str)
	case disasm.OpGlobal:
		return s.opGlobal(ins.Mod, ins.Str)
	case disasm.OpStackGlobal:
		return s.opStackGlobal()
	case disasm.OpNewobj:
		return s.whatAddOp(1, pyobj.OpNewObj)
	case disasm.OpBuild:
		return s.whatAddOp(1, pyobj.OpBuild)
	case disasm.OpReduce:
		return s.whatAddOp(1, pyobj.OpReduce)

	// tuples
	case disasm.OpTuple:
		return s.opTypeCreateAppend(pyobj.TypeTuple)
	case disasm.OpEmptyTuple:
		return s.opIterN(0, pyobj.TypeTuple)
	case disasm.OpTuple1:
		return s.opIterN(1, pyobj.TypeTuple)
	case disasm.OpTuple2:
		return s.opIterN(2, pyobj.TypeTuple)
	case disasm.OpTuple3:
		return s.opIterN(3, pyobj.TypeTuple)

	// lists
	case disasm.OpEmptyList:
		return s.opIterN(0, pyobj.TypeList)
	case disasm.OpAppend:
		return s.opAppend()
	case disasm.OpAppends:
		return s.opAppends(pyobj.OpAppends, pyobj.TypeList)
	case disasm.OpList:
		return s.opTypeCreateAppend(pyobj.TypeList)

	// dicts
	case disasm.OpEmptyDict:
		return s.opIterN(0, pyobj.TypeDict)
	case disasm.OpSetitem:
		return s.opSetItem()
	case disasm.OpSetitems:
		return s.opSetItems()
	case disasm.OpDict:
		return s.opTypeCreateAppend(pyobj.TypeDict)

	// bools
	case disasm.OpNewtrue:
		return s.pushBool(true)
	case disasm.OpNewfalse:
		return s.pushBool(false)

	// sets
	case disasm.OpFrozenset:
		return s.opTypeCreateAppend(pyobj.TypeFrozenSet)
	case disasm.OpEmptySet:
		return s.opIterN(0, pyobj.TypeSet)
	case disasm.OpAdditems:
		return s.opAppends(pyobj.OpAddItems, pyobj.TypeSet)

	// memo
	case disasm.OpMemoize:
		return s.opMemorize()
	case disasm.OpLongBinput, disasm.OpBinput:
		return s.memoPut(ins.Int)
	case disasm.OpLongBinget, disasm.OpBinget:
		return s.memoGet(ins.Int)

	// unhandled but recoverable: the opcode is real pickle, the VM just
	// doesn't model it yet (persistent IDs, opcode-level GET/PUT aliases
	// of the binary forms, extension registry codes, out-of-band buffers)
	case disasm.OpPersid, disasm.OpBinpersid, disasm.OpGet,
		disasm.OpPut, disasm.OpExt1, disasm.OpExt2, disasm.OpExt4,
		disasm.OpNewobjEx, disasm.OpNextBuffer, disasm.OpReadonlyBuffer:
		return ErrUnsupportedOp

	default:
		return ErrUnsupportedOp
	}
}
