package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dandegeest/aMiRROrMySubconscious/internal/imageproc"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/models"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/registry"
	"go.uber.org/zap"
)

type imageNormalizer interface {
	Normalize(ctx context.Context, ref string) (string, error)
}

type dispatcher interface {
	Send(ctx context.Context, version string, input models.Params) models.Outcome
}

type GenerateService struct {
	logger     *zap.Logger
	defaults   *Defaults
	registry   *registry.Registry
	images     imageNormalizer
	dispatcher dispatcher
}

func NewGenerateService(
	logger *zap.Logger,
	defaults *Defaults,
	reg *registry.Registry,
	images imageNormalizer,
	d dispatcher,
) *GenerateService {
	return &GenerateService{
		logger:     logger,
		defaults:   defaults,
		registry:   reg,
		images:     images,
		dispatcher: d,
	}
}

// Generate resolves raw against the current defaults, normalizes the input
// image if one was given and dispatches the prediction. The returned outcome
// is either succeeded or pending; every other result is an *Error.
func (s *GenerateService) Generate(ctx context.Context, raw models.Params) (*models.Outcome, error) {
	resolved, err := Resolve(raw, s.defaults.Snapshot(), s.registry)
	if err != nil {
		return nil, err
	}

	if resolved.Image != "" {
		uri, err := s.images.Normalize(ctx, resolved.Image)
		if err != nil {
			var imgErr *imageproc.ImageError
			if errors.As(err, &imgErr) {
				return nil, &Error{Kind: KindImage, Msg: imgErr.Error(), Err: err}
			}
			return nil, &Error{Kind: KindInternal, Msg: err.Error(), Err: err}
		}
		resolved.Input[ParamImage] = uri
	}

	s.logger.Debug("sending parameters to replicate",
		zap.String("version", resolved.Version),
		zap.Any("input", redactImage(resolved.Input)),
	)

	out := s.dispatcher.Send(ctx, resolved.Version, resolved.Input)
	switch out.Kind {
	case models.OutcomeSucceeded, models.OutcomePending:
		return &out, nil
	case models.OutcomeRejected:
		return nil, &Error{Kind: KindUpstreamRejected, Msg: "API validation error: " + out.Detail}
	default:
		return nil, &Error{Kind: KindTransport, Msg: out.Detail}
	}
}

func (s *GenerateService) Defaults() models.Params {
	return s.defaults.Snapshot()
}

// UpdateDefaults merges overrides into the defaults; unknown keys are ignored.
func (s *GenerateService) UpdateDefaults(overrides models.Params) models.Params {
	updated := s.defaults.Merge(overrides)
	s.logger.Info("default parameters updated", zap.Int("keys", len(overrides)))
	return updated
}

func (s *GenerateService) Models() []string {
	return s.registry.Names()
}

// redactImage keeps base64 payloads out of the logs.
func redactImage(input models.Params) models.Params {
	uri, ok := input[ParamImage].(string)
	if !ok {
		return input
	}
	out := input.Clone()
	if i := strings.Index(uri, ","); i >= 0 {
		out[ParamImage] = uri[:i+1] + "..."
	}
	return out
}
