package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleTranslatorTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gtx", r.URL.Query().Get("client"))
		assert.Equal(t, "auto", r.URL.Query().Get("sl"))
		assert.Equal(t, "es", r.URL.Query().Get("tl"))
		assert.Equal(t, "Train delayed. Sorry.", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[[["Tren retrasado. ","Train delayed. ",null,null,10],["Lo siento.","Sorry.",null,null,10]],null,"en"]`))
	}))
	defer srv.Close()

	tr := NewGoogleTranslator(srv.URL, time.Second)
	out, err := tr.Translate(context.Background(), "Train delayed. Sorry.", "", "es")
	require.NoError(t, err)
	assert.Equal(t, "Tren retrasado. Lo siento.", out)
}

func TestGoogleTranslatorStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewGoogleTranslator(srv.URL, time.Second).Translate(context.Background(), "hello", "en", "fr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestParseGoogleResponseEmpty(t *testing.T) {
	_, err := parseGoogleResponse([]byte(`[]`))
	assert.True(t, errors.Is(err, ErrEmptyTranslation))

	_, err = parseGoogleResponse([]byte(`[null,null,"en"]`))
	assert.True(t, errors.Is(err, ErrEmptyTranslation))

	_, err = parseGoogleResponse([]byte(`not json`))
	require.Error(t, err)
}

func TestStubTranslator(t *testing.T) {
	stub := &Stub{
		Dictionary: map[string]map[string]string{"fr": {"hello": "bonjour"}},
		Failures:   map[string]error{"ta": errors.New("engine down")},
	}
	out, err := stub.Translate(context.Background(), "hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)

	out, err = stub.Translate(context.Background(), "hello", "en", "hi")
	require.NoError(t, err)
	assert.Equal(t, "[hi] hello", out)

	_, err = stub.Translate(context.Background(), "hello", "en", "ta")
	require.Error(t, err)
	assert.Equal(t, []string{"fr", "hi", "ta"}, stub.Calls())
}
