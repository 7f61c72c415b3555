package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
	"github.com/xuxiaoleilancy/ai-codehub/internal/catalog"
)

var (
	ErrInvalidUpload   = errors.New("model name, version and file required")
	ErrNothingToUpdate = errors.New("nothing to update")
)

// ModelBackend is the part of the REST client the catalog pages use.
type ModelBackend interface {
	ListModels(ctx context.Context, token string) ([]apiclient.Model, error)
	GetModel(ctx context.Context, token, name string) (apiclient.Model, error)
	UploadModel(ctx context.Context, token string, input apiclient.UploadInput) error
	UpdateModel(ctx context.Context, token, name string, update apiclient.ModelUpdate) error
	DeleteModel(ctx context.Context, token, name string) error
}

type ModelService struct {
	backend ModelBackend
	log     zerolog.Logger
}

func NewModelService(backend ModelBackend, log zerolog.Logger) *ModelService {
	return &ModelService{
		backend: backend,
		log:     log.With().Str("component", "models").Logger(),
	}
}

// Listing is one catalog fetch: every model plus the filtered view.
type Listing struct {
	All      []apiclient.Model
	Filtered []apiclient.Model
}

func (s *ModelService) List(ctx context.Context, token string, criteria catalog.Criteria) (Listing, error) {
	all, err := s.backend.ListModels(ctx, token)
	if err != nil {
		return Listing{}, err
	}
	return Listing{All: all, Filtered: catalog.Filter(all, criteria)}, nil
}

func (s *ModelService) Get(ctx context.Context, token, name string) (apiclient.Model, error) {
	return s.backend.GetModel(ctx, token, name)
}

func (s *ModelService) Upload(ctx context.Context, token string, input apiclient.UploadInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Version = strings.TrimSpace(input.Version)
	if input.Name == "" || input.Version == "" || input.File == nil {
		return ErrInvalidUpload
	}
	if err := s.backend.UploadModel(ctx, token, input); err != nil {
		return err
	}
	s.log.Info().Str("model", input.Name).Msg("model uploaded")
	return nil
}

// EditInput holds the submitted and the previously shown values. Only
// fields that changed are sent.
type EditInput struct {
	Description         string
	Version             string
	OriginalDescription string
	OriginalVersion     string
}

func (s *ModelService) Update(ctx context.Context, token, name string, input EditInput) error {
	var update apiclient.ModelUpdate
	// textareas submit CRLF line breaks
	description := strings.ReplaceAll(input.Description, "\r\n", "\n")
	if description != strings.ReplaceAll(input.OriginalDescription, "\r\n", "\n") {
		update.Description = &description
	}
	if version := strings.TrimSpace(input.Version); version != "" && version != input.OriginalVersion {
		update.Version = &version
	}
	if update.Empty() {
		return ErrNothingToUpdate
	}
	if err := s.backend.UpdateModel(ctx, token, name, update); err != nil {
		return err
	}
	s.log.Info().Str("model", name).Msg("model updated")
	return nil
}

func (s *ModelService) Delete(ctx context.Context, token, name string) error {
	if err := s.backend.DeleteModel(ctx, token, name); err != nil {
		return err
	}
	s.log.Info().Str("model", name).Msg("model deleted")
	return nil
}
