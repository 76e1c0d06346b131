package disasm

import "testing"

func TestNextScalarOpcodes(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		want    Instruction
		wantErr bool
	}{
		{
			name: "BININT1",
			buf:  []byte{byte(OpBinint1), 0x2a},
			want: Instruction{Code: OpBinint1, Int: 42, Size: 2},
		},
		{
			name: "BININT negative",
			buf:  append([]byte{byte(OpBinint)}, 0xff, 0xff, 0xff, 0xff),
			want: Instruction{Code: OpBinint, Int: -1, Size: 5},
		},
		{
			name: "SHORT_BINUNICODE",
			buf:  append([]byte{byte(OpShortBinunicode), 5}, []byte("hello")...),
			want: Instruction{Code: OpShortBinunicode, Str: "hello", Size: 7},
		},
		{
			name: "STRING",
			buf:  append([]byte{byte(OpString)}, []byte("'hi'\n")...),
			want: Instruction{Code: OpString, Str: "hi", Size: 6},
		},
		{
			name: "STRING with escapes",
			buf:  append([]byte{byte(OpString)}, []byte(`'hello\n\'world\''`+"\n")...),
			want: Instruction{Code: OpString, Str: "hello\n'world'", Size: 20},
		},
		{
			name:    "truncated BININT",
			buf:     []byte{byte(OpBinint), 0x01, 0x02},
			wantErr: true,
		},
		{
			name: "MARK has no argument",
			buf:  []byte{byte(OpMark)},
			want: Instruction{Code: OpMark, Size: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.buf, 0)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Next() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if got.Code != tt.want.Code || got.Int != tt.want.Int ||
				got.Str != tt.want.Str || got.Size != tt.want.Size ||
				got.Float != tt.want.Float {
				t.Fatalf("Next() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNextAtNonZeroOffset(t *testing.T) {
	buf := []byte{byte(OpProto), 2, byte(OpBinint1), 7, byte(OpStop)}

	ins, err := Next(buf, 0)
	if err != nil || ins.Code != OpProto || ins.Int != 2 || ins.Size != 2 {
		t.Fatalf("PROTO decode = %+v, err=%v", ins, err)
	}

	ins, err = Next(buf, 2)
	if err != nil || ins.Code != OpBinint1 || ins.Int != 7 {
		t.Fatalf("BININT1 decode at offset 2 = %+v, err=%v", ins, err)
	}

	ins, err = Next(buf, 4)
	if err != nil || ins.Code != OpStop {
		t.Fatalf("STOP decode at offset 4 = %+v, err=%v", ins, err)
	}
}

func TestNextGlobalSplitsModuleAndName(t *testing.T) {
	buf := append([]byte{byte(OpGlobal)}, []byte("copy_reg\nreconstructor\n")...)
	ins, err := Next(buf, 0)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if ins.Mod != "copy_reg" || ins.Str != "reconstructor" {
		t.Fatalf("Mod,Str = %q,%q, want %q,%q", ins.Mod, ins.Str, "copy_reg", "reconstructor")
	}
}

func TestNextOffEndOfBuffer(t *testing.T) {
	buf := []byte{byte(OpStop)}
	if _, err := Next(buf, 5); err != ErrTruncated {
		t.Fatalf("Next() past end error = %v, want ErrTruncated", err)
	}
}
