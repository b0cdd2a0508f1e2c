package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	handler    string
	convention Convention
	err        error
	calls      int
}

func (o *recordingObserver) ObserveDispatch(handler string, convention Convention, err error, _ time.Duration) {
	o.handler, o.convention, o.err = handler, convention, err
	o.calls++
}

// capture registers a handler that stores the call it receives.
func capture(t *testing.T, r *Registry, d Descriptor) (*Handler, **Call) {
	t.Helper()
	var got *Call
	require.NoError(t, r.Register(d, func(_ context.Context, c *Call) (any, error) {
		got = c
		return "ok", nil
	}))
	h, err := r.Resolve(d.Key)
	require.NoError(t, err)
	return h, &got
}

func fileAndCount() Descriptor {
	return Descriptor{
		Key:         "count_rows",
		AcceptsFile: true,
		Params: []Param{
			{Name: "file_path", Required: true},
			{Name: "n", Type: "integer"},
		},
	}
}

func TestInvoke_ZeroParamsIgnoresFileAndArgs(t *testing.T) {
	r := NewRegistry()
	h, got := capture(t, r, Descriptor{Key: "constant"})
	e := NewEngine(nil, nil)

	for _, args := range []Arguments{Empty(), Positional(1, 2), Keyword(map[string]any{"x": 1})} {
		for _, file := range []string{"", "/tmp/upload.zip"} {
			answer, err := e.Invoke(context.Background(), h, args, file)
			require.NoError(t, err)
			assert.Equal(t, "ok", answer)
			assert.Equal(t, ConventionNone, (*got).Convention)
			assert.Empty(t, (*got).Positional)
			assert.Empty(t, (*got).Keyword)
			assert.Empty(t, (*got).Bound())
		}
	}
}

func TestInvoke_FileFirstThenKeywords(t *testing.T) {
	r := NewRegistry()
	h, got := capture(t, r, fileAndCount())

	_, err := NewEngine(nil, nil).Invoke(context.Background(), h, Keyword(map[string]any{"n": 3}), "/tmp/data.csv")
	require.NoError(t, err)

	c := *got
	assert.Equal(t, ConventionFileFirst, c.Convention)
	assert.Equal(t, []any{"/tmp/data.csv"}, c.Positional)
	assert.Equal(t, map[string]any{"n": 3}, c.Keyword)
	n, err := c.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	path, err := c.Text("file_path")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/data.csv", path)
}

func TestInvoke_FileFirstThenPositionals(t *testing.T) {
	r := NewRegistry()
	h, got := capture(t, r, fileAndCount())

	_, err := NewEngine(nil, nil).Invoke(context.Background(), h, Positional(float64(7)), "/tmp/data.csv")
	require.NoError(t, err)

	c := *got
	assert.Equal(t, []any{"/tmp/data.csv", float64(7)}, c.Positional)
	n, err := c.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestInvoke_FileOnlyWithEmptyArgs(t *testing.T) {
	r := NewRegistry()
	h, got := capture(t, r, Descriptor{
		Key:         "csv_zip_to_json",
		AcceptsFile: true,
		Params:      []Param{{Name: "file_path", Required: true}},
	})

	_, err := NewEngine(nil, nil).Invoke(context.Background(), h, Empty(), "/tmp/q1.zip")
	require.NoError(t, err)
	assert.Equal(t, []any{"/tmp/q1.zip"}, (*got).Positional)
	assert.Empty(t, (*got).Keyword)
}

func TestInvoke_SpreadWithoutFile(t *testing.T) {
	d := Descriptor{
		Key: "weekdays",
		Params: []Param{
			{Name: "start", Required: true},
			{Name: "end", Required: true},
		},
	}

	t.Run("keyword", func(t *testing.T) {
		r := NewRegistry()
		h, got := capture(t, r, d)
		_, err := NewEngine(nil, nil).Invoke(context.Background(), h,
			Keyword(map[string]any{"start": "2020-01-01", "end": "2020-12-31"}), "")
		require.NoError(t, err)
		assert.Equal(t, ConventionSpread, (*got).Convention)
		assert.Empty(t, (*got).Positional)
		assert.Equal(t, map[string]any{"start": "2020-01-01", "end": "2020-12-31"}, (*got).Bound())
	})

	t.Run("positional", func(t *testing.T) {
		r := NewRegistry()
		h, got := capture(t, r, d)
		_, err := NewEngine(nil, nil).Invoke(context.Background(), h, Positional("2020-01-01", "2020-12-31"), "")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"start": "2020-01-01", "end": "2020-12-31"}, (*got).Bound())
	})
}

func TestInvoke_EmptyArgsOptionalParams(t *testing.T) {
	r := NewRegistry()
	h, got := capture(t, r, Descriptor{Key: "greet", Params: []Param{{Name: "name"}}})

	_, err := NewEngine(nil, nil).Invoke(context.Background(), h, Empty(), "")
	require.NoError(t, err)
	assert.Equal(t, ConventionSpread, (*got).Convention)
	v, err := (*got).TextOr("name", "world")
	require.NoError(t, err)
	assert.Equal(t, "world", v)
}

func TestInvoke_BindingFailuresAreHandlerErrors(t *testing.T) {
	d := Descriptor{Key: "pair", Params: []Param{{Name: "a", Required: true}, {Name: "b"}}}

	tests := []struct {
		name string
		args Arguments
		file string
		msg  string
	}{
		{"missing required", Empty(), "", `missing required argument "a"`},
		{"too many positionals", Positional(1, 2, 3), "", "takes 2 positional arguments but 3 were given"},
		{"file plus two positionals", Positional(1, 2), "/tmp/x", "takes 2 positional arguments but 3 were given"},
		{"unknown keyword", Keyword(map[string]any{"a": 1, "zzz": 2}), "", `unexpected keyword argument "zzz"`},
		{"keyword collides with file", Keyword(map[string]any{"a": 1}), "/tmp/x", `multiple values for argument "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			called := false
			require.NoError(t, r.Register(d, func(context.Context, *Call) (any, error) {
				called = true
				return nil, nil
			}))
			h, err := r.Resolve("pair")
			require.NoError(t, err)

			_, err = NewEngine(nil, nil).Invoke(context.Background(), h, tt.args, tt.file)
			require.Error(t, err)
			var he *HandlerExecutionError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, "pair", he.Handler)
			assert.ErrorIs(t, err, ErrBadCall)
			assert.Contains(t, he.Message(), tt.msg)
			assert.False(t, called)
		})
	}
}

func TestInvoke_HandlerErrorKeepsMessage(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("division by zero")
	require.NoError(t, r.Register(Descriptor{Key: "divide"}, func(context.Context, *Call) (any, error) {
		return nil, boom
	}))
	h, err := r.Resolve("divide")
	require.NoError(t, err)

	obs := &recordingObserver{}
	_, err = NewEngine(nil, obs).Invoke(context.Background(), h, Empty(), "")
	var he *HandlerExecutionError
	require.True(t, errors.As(err, &he))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "division by zero", he.Message())
	assert.Contains(t, err.Error(), "division by zero")

	assert.Equal(t, 1, obs.calls)
	assert.Equal(t, "divide", obs.handler)
	assert.ErrorIs(t, obs.err, boom)
}

func TestInvoke_PanicIsRecovered(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{Key: "explode"}, func(context.Context, *Call) (any, error) {
		panic("index out of range")
	}))
	h, err := r.Resolve("explode")
	require.NoError(t, err)

	_, err = NewEngine(nil, nil).Invoke(context.Background(), h, Empty(), "")
	var he *HandlerExecutionError
	require.True(t, errors.As(err, &he))
	assert.Contains(t, he.Message(), "index out of range")
}

func TestRegistry_ResolveAndFallback(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("missing")
	assert.ErrorIs(t, err, ErrUnknownHandler)

	answer, err := NewEngine(nil, nil).Invoke(context.Background(), r.Fallback(), Keyword(map[string]any{"x": 1}), "/tmp/f")
	require.NoError(t, err)
	assert.Equal(t, NoMatchAnswer, answer)
}

func TestRegistry_RegisterValidation(t *testing.T) {
	noop := func(context.Context, *Call) (any, error) { return nil, nil }
	r := NewRegistry()

	assert.Error(t, r.Register(Descriptor{}, noop))
	assert.Error(t, r.Register(Descriptor{Key: "nil"}, nil))
	assert.Error(t, r.Register(Descriptor{Key: "file", AcceptsFile: true}, noop))
	assert.Error(t, r.Register(Descriptor{Key: "dup", Params: []Param{{Name: "a"}, {Name: "a"}}}, noop))
	require.NoError(t, r.Register(Descriptor{Key: "b"}, noop))
	require.NoError(t, r.Register(Descriptor{Key: "a"}, noop))
	assert.Error(t, r.Register(Descriptor{Key: "a"}, noop))

	keys := []string{}
	for _, d := range r.Descriptors() {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestDescriptorSchema_HidesFileParam(t *testing.T) {
	s := fileAndCount().Schema()
	assert.Equal(t, "count_rows", s.Name)

	props := s.Parameters["properties"].(map[string]any)
	assert.NotContains(t, props, "file_path")
	assert.Equal(t, map[string]any{"type": "integer"}, props["n"])
	assert.Equal(t, []string{}, s.Parameters["required"])
}
