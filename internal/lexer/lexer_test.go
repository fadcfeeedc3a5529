package lexer

import "testing"

func TestLexPunctuationAndOperators(t *testing.T) {
	toks, err := Lex(`( ) { } [ ] , ; : . $ & ' + - * / = == != < > <= >= && || !`)
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}
	want := []Type{
		LParen, RParen, LBrace, RBrace, LBracket, RBracket, Comma, Semicolon,
		Colon, Dot, Dollar, Amp, Quote, Plus, Minus, Star, Slash, Eq, EqEq,
		NotEq, Lt, Gt, LtEq, GtEq, AndAnd, OrOr, Bang, EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, tt)
		}
	}
}

func TestLexIdentAndKeywords(t *testing.T) {
	toks, err := Lex(`foo true false bar_2`)
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}
	wantType := []Type{Ident, True, False, Ident, EOF}
	wantLit := []string{"foo", "true", "false", "bar_2", ""}
	for i, tt := range wantType {
		if toks[i].Type != tt {
			t.Errorf("token %d: got type %s, want %s", i, toks[i].Type, tt)
		}
		if toks[i].Literal != wantLit[i] {
			t.Errorf("token %d: got literal %q, want %q", i, toks[i].Literal, wantLit[i])
		}
	}
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		src  string
		typ  Type
		lit  string
	}{
		{"0", Int, "0"},
		{"42", Int, "42"},
		{"3.14", Float, "3.14"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks, err := Lex(tt.src)
			if err != nil {
				t.Fatalf("Lex(%q) returned error: %v", tt.src, err)
			}
			if toks[0].Type != tt.typ {
				t.Errorf("got type %s, want %s", toks[0].Type, tt.typ)
			}
			if toks[0].Literal != tt.lit {
				t.Errorf("got literal %q, want %q", toks[0].Literal, tt.lit)
			}
		})
	}
}

func TestLexString(t *testing.T) {
	toks, err := Lex(`"hello world"`)
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}
	if toks[0].Type != String {
		t.Fatalf("got type %s, want String", toks[0].Type)
	}
	if toks[0].Literal != "hello world" {
		t.Errorf("got literal %q, want %q", toks[0].Literal, "hello world")
	}
}

func TestLexTracksLineAndColumn(t *testing.T) {
	toks, err := Lex("a\nb")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}
	if toks[0].Pos.Line != 1 || toks[0].Pos.Column != 1 {
		t.Errorf("first token pos = %+v, want line 1 col 1", toks[0].Pos)
	}
	if toks[1].Pos.Line != 2 || toks[1].Pos.Column != 1 {
		t.Errorf("second token pos = %+v, want line 2 col 1", toks[1].Pos)
	}
}

func TestLexSkipsComments(t *testing.T) {
	toks, err := Lex("// a comment\n42")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2 (Int, EOF)", len(toks))
	}
	if toks[0].Type != Int || toks[0].Literal != "42" {
		t.Errorf("got %+v, want Int 42", toks[0])
	}
}

func TestLexUnterminatedStringIsError(t *testing.T) {
	_, err := Lex(`"unterminated`)
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
	if _, ok := err.(*Error); !ok {
		t.Errorf("got error of type %T, want *Error", err)
	}
}
