package matcher

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhinjs/segment-matcher-sub000/engine"
	"github.com/zhinjs/segment-matcher-sub000/engine/compiler"
)

func face(id any) engine.Segment {
	return engine.NewSegment("face", map[string]any{"id": id})
}

func texts(segs []engine.Segment) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		if t, ok := s.TextValue(); ok {
			out = append(out, t)
		} else {
			out = append(out, s.Kind)
		}
	}
	return out
}

func mustMatch(t *testing.T, pattern string, segs ...engine.Segment) *engine.MatchResult {
	t.Helper()
	res, err := New().MatchPattern(pattern, segs, FieldMapping{})
	require.NoError(t, err)
	require.NotNil(t, res, "pattern %q should match", pattern)
	return res
}

func mustNotMatch(t *testing.T, pattern string, segs ...engine.Segment) {
	t.Helper()
	res, err := New().MatchPattern(pattern, segs, FieldMapping{})
	require.NoError(t, err)
	require.Nil(t, res, "pattern %q should not match", pattern)
}

func TestLiteralSplitting(t *testing.T) {
	res := mustMatch(t, "hello <name:text>", engine.Text("hello Alice"))

	assert.Equal(t, map[string]any{"name": "Alice"}, res.Params)
	assert.Equal(t, []string{"hello", " ", "Alice"}, texts(res.Matched))
	assert.Equal(t, "hello Alice", res.MatchedText())
	assert.Empty(t, res.Remaining)
}

func TestLiteralSeparatorIsOptional(t *testing.T) {
	res := mustMatch(t, "ping ", engine.Text("ping"))
	assert.Equal(t, []string{"ping"}, texts(res.Matched))

	res = mustMatch(t, "ping ", engine.Text("ping extra"))
	assert.Equal(t, []string{"ping", " "}, texts(res.Matched))
	assert.Equal(t, []string{"extra"}, texts(res.Remaining))
}

func TestLiteralDoubleSpaceIsRequired(t *testing.T) {
	mustNotMatch(t, "ping  <x>", engine.Text("ping x"))
	res := mustMatch(t, "ping  <x>", engine.Text("ping  x"))
	assert.Equal(t, "x", res.Params["x"])
}

func TestLiteralMismatch(t *testing.T) {
	mustNotMatch(t, "hello", engine.Text("help"))
	mustNotMatch(t, "hello", face(1))
	mustNotMatch(t, "hello")
}

func TestTypedLiteralSubstringSplit(t *testing.T) {
	res := mustMatch(t, "{text:hello}<name:text>", engine.Text("hello world"))
	assert.Equal(t, map[string]any{"name": " world"}, res.Params)
	assert.Equal(t, []string{"hello", " world"}, texts(res.Matched))
}

func TestTypedLiteralBeforeChunkIsMatched(t *testing.T) {
	res := mustMatch(t, "{text:hello}[rest]", engine.Text("say hello there"))
	assert.Equal(t, []string{"say ", "hello", " there"}, texts(res.Matched))
	assert.Equal(t, " there", res.Params["rest"])
}

func TestTypedLiteralNonText(t *testing.T) {
	res := mustMatch(t, "{face:14}", face(14))
	assert.Equal(t, []string{"face"}, texts(res.Matched))

	mustNotMatch(t, "{face:14}", face(15))
	mustNotMatch(t, "{face:14}", engine.Text("14"))

	res = mustMatch(t, "{image}", engine.NewSegment("image", map[string]any{"url": "u"}))
	assert.Len(t, res.Matched, 1)
}

func TestRestStopsAtTypeChange(t *testing.T) {
	res := mustMatch(t, "test[...rest:face]",
		engine.Text("test"), face(1), face(2), engine.Text("hello"))

	assert.Equal(t, []any{1, 2}, res.Params["rest"])
	require.Len(t, res.Remaining, 1)
	assert.Equal(t, engine.Text("hello"), res.Remaining[0])
}

func TestRestToleratesInteriorSingleSpace(t *testing.T) {
	res := mustMatch(t, "test[...rest:face]",
		engine.Text("test"), face(1), engine.Text(" "), face(2), engine.Text(" "))

	assert.Equal(t, []any{1, 2}, res.Params["rest"])
	assert.Equal(t, []string{"test", "face", " ", "face"}, texts(res.Matched))
	// a trailing space is not interior
	assert.Equal(t, []string{" "}, texts(res.Remaining))
}

func TestRestDoesNotTolerateWiderWhitespace(t *testing.T) {
	res := mustMatch(t, "test[...rest:face]",
		engine.Text("test"), face(1), engine.Text("  "), face(2))

	assert.Equal(t, []any{1}, res.Params["rest"])
	assert.Equal(t, []string{"  ", "face"}, texts(res.Remaining))
}

func TestRestUnfilteredCollectsEverything(t *testing.T) {
	poke := engine.NewSegment("poke", map[string]any{"qq": 1})
	res := mustMatch(t, "echo [...all]", engine.Text("echo hi"), face(3), poke)

	assert.Equal(t, []any{"hi", 3, poke}, res.Params["all"])
	assert.Empty(t, res.Remaining)
}

func TestRestTypedWords(t *testing.T) {
	res := mustMatch(t, "sum [...nums:number]", engine.Text("sum 1 2 3.5 x"))
	assert.Equal(t, []any{float64(1), float64(2), 3.5}, res.Params["nums"])
	assert.Equal(t, []string{" x"}, texts(res.Remaining))
}

func TestRestEmptyStillSucceeds(t *testing.T) {
	res := mustMatch(t, "test[...rest:face]", engine.Text("test"))
	assert.Equal(t, []any{}, res.Params["rest"])
}

func TestTypeCoercionRejectsMismatch(t *testing.T) {
	mustNotMatch(t, "<age:integer>", engine.Text("25.5"))

	res := mustMatch(t, "[age:integer=10]", engine.Text("25.5"))
	assert.Equal(t, int64(10), res.Params["age"])
	assert.Equal(t, []string{"25.5"}, texts(res.Remaining))
}

func TestTypedParameters(t *testing.T) {
	res := mustMatch(t, "roll <n:integer> <sides:integer>", engine.Text("roll 2 20"))
	assert.Equal(t, map[string]any{"n": int64(2), "sides": int64(20)}, res.Params)

	res = mustMatch(t, "set <on:boolean>", engine.Text("set true"))
	assert.Equal(t, true, res.Params["on"])

	res = mustMatch(t, "scale <f:float>", engine.Text("scale 1.5 extra"))
	assert.Equal(t, 1.5, res.Params["f"])
	assert.Equal(t, []string{" extra"}, texts(res.Remaining))

	mustNotMatch(t, "scale <f:float>", engine.Text("scale 2"))
}

func TestMultipleTextParametersFromOneBlob(t *testing.T) {
	res := mustMatch(t, "greet <first> <last>", engine.Text("greet Ada Lovelace"))
	assert.Equal(t, map[string]any{"first": "Ada", "last": "Lovelace"}, res.Params)

	res = mustMatch(t, "say <who> <msg>", engine.Text(`say "Ada L" 'it is "fine"'`))
	assert.Equal(t, "Ada L", res.Params["who"])
	// the last parameter takes the raw remaining text
	assert.Equal(t, `'it is "fine"'`, res.Params["msg"])

	res = mustMatch(t, "say <who> [msg]", engine.Text(`say 'x "y" z'`))
	assert.Equal(t, `x "y" z`, res.Params["who"])
	assert.Equal(t, "", res.Params["msg"])
}

func TestOptionalParametersFromOneBlob(t *testing.T) {
	res := mustMatch(t, "w [city=Paris] [days:integer=3]", engine.Text("w Oslo 5"))
	assert.Equal(t, map[string]any{"city": "Oslo", "days": int64(5)}, res.Params)

	res = mustMatch(t, "w [city=Paris] [days:integer=3]", engine.Text("w"))
	assert.Equal(t, map[string]any{"city": "Paris", "days": int64(3)}, res.Params)
}

func TestUnclosedQuoteFallsBackToWord(t *testing.T) {
	res := mustMatch(t, "say <a> <b>", engine.Text(`say "oops here`))
	assert.Equal(t, `"oops`, res.Params["a"])
	assert.Equal(t, "here", res.Params["b"])
}

func TestTextParameterRequiresTextSegment(t *testing.T) {
	mustNotMatch(t, "<name:text>", face(1))
	mustNotMatch(t, "<name:text>", engine.NewSegment("text", map[string]any{"content": "x"}))
}

func TestKindParameter(t *testing.T) {
	img := engine.NewSegment("image", map[string]any{"file": "a.png"})
	res := mustMatch(t, "show <pic:image>", engine.Text("show "), img)
	assert.Equal(t, "a.png", res.Params["pic"])

	// no mapping for the kind: success with nil
	poke := engine.NewSegment("poke", map[string]any{"id": 1})
	res = mustMatch(t, "<p:poke>", poke)
	v, ok := res.Param("p")
	assert.True(t, ok)
	assert.Nil(t, v)

	mustNotMatch(t, "<pic:image>", poke)
}

func TestCallerFieldMappingOverridesDefault(t *testing.T) {
	img := engine.NewSegment("image", map[string]any{"url": "u", "src": "s"})
	fm := NewFieldMapping()
	fm.AddMapping("image", FieldNames{"src", "file", "url"})

	res, err := New().MatchPattern("<pic:image>", []engine.Segment{img}, fm)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "s", res.Params["pic"])

	res, err = New().MatchPattern("<pic:image>", []engine.Segment{img}, FieldMapping{})
	require.NoError(t, err)
	assert.Equal(t, "u", res.Params["pic"])
}

func TestEngineFieldMappingOption(t *testing.T) {
	fm := NewFieldMapping()
	fm.AddMapping("at", FieldName("qq"))
	e := New(WithFieldMapping(fm))

	res, err := e.MatchPattern("<who:at>", []engine.Segment{engine.NewSegment("at", map[string]any{"qq": "123"})}, FieldMapping{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "123", res.Params["who"])
}

func TestIdempotentDefaults(t *testing.T) {
	patterns := map[string]map[string]any{
		"[a]":                     {"a": ""},
		"[n:number]":              {"n": nil},
		"[n:number=5]":            {"n": float64(5)},
		"[flag:boolean=false]":    {"flag": false},
		"[...rest]":               {"rest": []any{}},
		"[x=hi][...r:face]":       {"x": "hi", "r": []any{}},
		`[o:json={"k":[1]}]`:      {"o": map[string]any{"k": []any{float64(1)}}},
		"[a][b:integer=-2][...c]": {"a": "", "b": int64(-2), "c": []any{}},
	}
	e := New()
	for p, want := range patterns {
		t.Run(p, func(t *testing.T) {
			for i := 0; i < 2; i++ {
				res, err := e.MatchPattern(p, nil, FieldMapping{})
				require.NoError(t, err)
				require.NotNil(t, res)
				assert.Equal(t, want, res.Params)
				assert.Empty(t, res.Matched)
				assert.Empty(t, res.Remaining)
			}
		})
	}
}

func TestDefaultsAreNotShared(t *testing.T) {
	e := New()
	tokens := compiler.MustCompile(`[o:json={"k":1}]`)

	first, err := e.Match(tokens, nil, FieldMapping{})
	require.NoError(t, err)
	first.Params["o"].(map[string]any)["k"] = "changed"

	second, err := e.Match(tokens, nil, FieldMapping{})
	require.NoError(t, err)
	assert.Equal(t, float64(1), second.Params["o"].(map[string]any)["k"])
}

func TestEmptyTokens(t *testing.T) {
	res, err := Match(nil, nil, FieldMapping{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.IsValid())

	res, err = Match(nil, []engine.Segment{engine.Text("x")}, FieldMapping{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []string{"x"}, texts(res.Remaining))
}

func TestRequiredTokenWithoutSegments(t *testing.T) {
	mustNotMatch(t, "<a>")
	mustNotMatch(t, "[a] <b>")
}

func TestCallerSegmentsAreNotMutated(t *testing.T) {
	input := []engine.Segment{engine.Text("hello Alice"), face(1)}
	res := mustMatch(t, "hello <name> [...f:face]", input...)

	assert.Equal(t, "hello Alice", input[0].Fields["text"])
	res.Matched[len(res.Matched)-1].Fields["id"] = 99
	assert.Equal(t, 1, input[1].Fields["id"])
}

func TestValidationErrors(t *testing.T) {
	_, err := Match(compiler.MustCompile("<a>"), []engine.Segment{{Kind: ""}}, FieldMapping{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrValidation))

	bad := NewFieldMapping()
	bad.AddMapping("image", FieldNames{})
	_, err = Match(compiler.MustCompile("<a>"), []engine.Segment{engine.Text("x")}, bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrValidation))
}

func TestMatchPatternParseError(t *testing.T) {
	_, err := MatchPattern("<oops", []engine.Segment{engine.Text("x")}, FieldMapping{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrParse))
}

func TestCustomTypeRegistry(t *testing.T) {
	reg := NewTypeRegistry()
	reg.RegisterFunc("color", func(s string) (any, bool) {
		switch s {
		case "red", "green", "blue":
			return s, true
		}
		return nil, false
	})
	e := New(WithTypeRegistry(reg))

	tokens := compiler.MustCompile("paint <c:color>")
	res, err := e.Match(tokens, []engine.Segment{engine.Text("paint red")}, FieldMapping{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "red", res.Params["c"])

	res, err = e.Match(tokens, []engine.Segment{engine.Text("paint pink")}, FieldMapping{})
	require.NoError(t, err)
	assert.Nil(t, res)

	// the default engine has never heard of "color": it is treated as a segment kind
	res, err = Match(tokens, []engine.Segment{engine.Text("paint red")}, FieldMapping{})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestConcurrentMatches(t *testing.T) {
	e := New()
	tokens := compiler.MustCompile("hello <name> [...f:face]")
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.Match(tokens, []engine.Segment{engine.Text("hello Bob"), face(i)}, FieldMapping{})
			if err != nil {
				errs <- err
				return
			}
			if res == nil || res.Params["name"] != "Bob" {
				errs <- errors.New("unexpected result")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
