package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dandegeest/aMiRROrMySubconscious/internal/imageproc"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeImages struct {
	calls []string
	uri   string
	err   error
}

func (f *fakeImages) Normalize(_ context.Context, ref string) (string, error) {
	f.calls = append(f.calls, ref)
	return f.uri, f.err
}

type fakeDispatcher struct {
	calls   int
	version string
	input   models.Params
	out     models.Outcome
}

func (f *fakeDispatcher) Send(_ context.Context, version string, input models.Params) models.Outcome {
	f.calls++
	f.version = version
	f.input = input
	return f.out
}

func newTestService(t *testing.T, images *fakeImages, d *fakeDispatcher) *GenerateService {
	t.Helper()
	return NewGenerateService(zap.NewNop(), NewDefaults(BuiltinDefaults()), testRegistry(t), images, d)
}

func TestGenerate_Succeeded(t *testing.T) {
	images := &fakeImages{}
	d := &fakeDispatcher{out: models.Outcome{Kind: models.OutcomeSucceeded, Output: "https://out/0.png"}}
	svc := newTestService(t, images, d)

	out, err := svc.Generate(context.Background(), models.Params{"model": "schnell", "prompt": "a cat"})
	require.NoError(t, err)

	assert.Equal(t, "https://out/0.png", out.Output)
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, testRegistry(t).BaselineVersion(), d.version)
	assert.Equal(t, "schnell", d.input["model"])
	assert.NotContains(t, d.input, "image")
	assert.Empty(t, images.calls)
}

func TestGenerate_NormalizesImage(t *testing.T) {
	images := &fakeImages{uri: "data:image/png;base64,AAAA"}
	d := &fakeDispatcher{out: models.Outcome{Kind: models.OutcomePending, ID: "p1", Status: "starting"}}
	svc := newTestService(t, images, d)

	out, err := svc.Generate(context.Background(), models.Params{"image": "https://example.com/a.jpg"})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomePending, out.Kind)
	assert.Equal(t, []string{"https://example.com/a.jpg"}, images.calls)
	assert.Equal(t, "data:image/png;base64,AAAA", d.input["image"])
}

func TestGenerate_ErrorsStopBeforeDispatch(t *testing.T) {
	tests := []struct {
		name   string
		raw    models.Params
		images *fakeImages
		kind   Kind
		msg    string
	}{
		{
			name:   "unknown variant",
			raw:    models.Params{"model_version": "borg"},
			images: &fakeImages{},
			kind:   KindValidation,
			msg:    "Unknown model version: borg",
		},
		{
			name:   "invalid model",
			raw:    models.Params{"model": "pro"},
			images: &fakeImages{},
			kind:   KindValidation,
			msg:    "Invalid model: pro",
		},
		{
			name: "missing local image",
			raw:  models.Params{"image": "/nope.png"},
			images: &fakeImages{err: &imageproc.ImageError{
				Source: imageproc.SourcePath,
				Msg:    "Could not read image file",
				Err:    errors.New("no such file or directory"),
			}},
			kind: KindImage,
			msg:  "Could not read image file: no such file or directory",
		},
		{
			name:   "unexpected image failure",
			raw:    models.Params{"image": "https://example.com/a.png"},
			images: &fakeImages{err: errors.New("disk full")},
			kind:   KindInternal,
			msg:    "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{}
			svc := newTestService(t, tt.images, d)

			out, err := svc.Generate(context.Background(), tt.raw)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
			assert.Zero(t, d.calls)
		})
	}
}

func TestGenerate_UpstreamOutcomes(t *testing.T) {
	d := &fakeDispatcher{out: models.Outcome{Kind: models.OutcomeRejected, Detail: "width too big"}}
	svc := newTestService(t, &fakeImages{}, d)

	_, err := svc.Generate(context.Background(), models.Params{})
	require.Error(t, err)
	assert.Equal(t, KindUpstreamRejected, KindOf(err))
	assert.Equal(t, "API validation error: width too big", err.Error())

	d.out = models.Outcome{Kind: models.OutcomeFailed, Detail: "upstream returned 503"}
	_, err = svc.Generate(context.Background(), models.Params{})
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, "upstream returned 503", err.Error())
}

func TestGenerate_UsesUpdatedDefaults(t *testing.T) {
	d := &fakeDispatcher{out: models.Outcome{Kind: models.OutcomeSucceeded}}
	svc := newTestService(t, &fakeImages{}, d)

	updated := svc.UpdateDefaults(models.Params{"prompt": "new default", "bogus": 1})
	assert.Equal(t, "new default", updated["prompt"])
	assert.NotContains(t, svc.Defaults(), "bogus")

	_, err := svc.Generate(context.Background(), models.Params{})
	require.NoError(t, err)
	assert.Equal(t, "new default", d.input["prompt"])
}

func TestGenerate_Models(t *testing.T) {
	svc := newTestService(t, &fakeImages{}, &fakeDispatcher{})
	assert.Equal(t, []string{"klingon", "subconscious", "mirror", "plain"}, svc.Models())
}

func TestRedactImage(t *testing.T) {
	in := models.Params{"image": "data:image/png;base64,AAAABBBB", "prompt": "x"}
	out := redactImage(in)

	assert.Equal(t, "data:image/png;base64,...", out["image"])
	assert.Equal(t, "data:image/png;base64,AAAABBBB", in["image"])
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	wrapped := errors.Join(errors.New("ctx"), &Error{Kind: KindTransport, Msg: "x"})
	assert.Equal(t, KindTransport, KindOf(wrapped))
	assert.Equal(t, "validation", KindValidation.String())
}
