package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHeader struct {
	keys  map[string]bool
	calls []string
	err   error
}

func (f *fakeHeader) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.calls = append(f.calls, *in.Key)
	if f.err != nil {
		return nil, f.err
	}
	if !f.keys[*in.Key] {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestKeyForURL(t *testing.T) {
	r := &R2Store{CDNBaseURL: "https://cdn.findplayer.test"}

	key, ok := r.KeyForURL("https://cdn.findplayer.test/videos/a%20b.mp4?sig=1")
	require.True(t, ok)
	assert.Equal(t, "videos/a b.mp4", key)

	_, ok = r.KeyForURL("https://youtube.com/watch?v=1")
	assert.False(t, ok)

	_, ok = r.KeyForURL("https://cdn.findplayer.test/")
	assert.False(t, ok)
}

func TestVerifyVideo(t *testing.T) {
	fake := &fakeHeader{keys: map[string]bool{"videos/ok.mp4": true}}
	r := &R2Store{Client: fake, Bucket: "media", CDNBaseURL: "https://cdn.findplayer.test"}
	ctx := context.Background()

	assert.NoError(t, r.VerifyVideo(ctx, "https://cdn.findplayer.test/videos/ok.mp4"))
	assert.ErrorIs(t, r.VerifyVideo(ctx, "https://cdn.findplayer.test/videos/missing.mp4"), ErrObjectMissing)

	// External hosts are never looked up.
	assert.NoError(t, r.VerifyVideo(ctx, "https://vimeo.com/123"))
	assert.Equal(t, []string{"videos/ok.mp4", "videos/missing.mp4"}, fake.calls)

	fake.err = errors.New("boom")
	err := r.VerifyVideo(ctx, "https://cdn.findplayer.test/videos/ok.mp4")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectMissing)
}
