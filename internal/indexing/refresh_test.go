package indexing

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher serves fixed content per URL and counts fetches.
type stubFetcher struct {
	content map[string][]byte
	err     error
	calls   int
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (io.ReadCloser, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.content[rawURL]
	if !ok {
		return nil, eris.Errorf("no content for %s", rawURL)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestDigestBytes(t *testing.T) {
	// SHA-512 of the empty input.
	assert.Equal(t,
		"cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e",
		DigestBytes(nil))

	a := DigestBytes([]byte("1,2,3\n"))
	b := DigestBytes([]byte("1,2,4\n"))
	assert.Len(t, a, 128)
	assert.NotEqual(t, a, b)
}

func TestRefresh_Updated(t *testing.T) {
	f := &stubFetcher{content: map[string][]byte{"u": []byte("payload")}}

	res, err := Refresh(context.Background(), f, "u", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, DigestBytes([]byte("payload")), res.Hash)
	assert.Equal(t, []byte("payload"), res.Data)
}

func TestRefresh_Unchanged(t *testing.T) {
	data := []byte("payload")
	f := &stubFetcher{content: map[string][]byte{"u": data}}

	res, err := Refresh(context.Background(), f, "u", DigestBytes(data))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)
	assert.Equal(t, DigestBytes(data), res.Hash)
	// Unchanged content is not carried back to the caller.
	assert.Nil(t, res.Data)
}

func TestRefresh_SingleByteChange(t *testing.T) {
	prev := DigestBytes([]byte("1,2,3\n"))
	f := &stubFetcher{content: map[string][]byte{"u": []byte("1,2,4\n")}}

	res, err := Refresh(context.Background(), f, "u", prev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.NotEqual(t, prev, res.Hash)
}

func TestRefresh_FetchError(t *testing.T) {
	f := &stubFetcher{err: eris.New("connection refused")}

	_, err := Refresh(context.Background(), f, "u", "")
	require.Error(t, err)
}
