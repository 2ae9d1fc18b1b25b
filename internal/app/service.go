package app

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docugen/api/internal/export"
	"docugen/api/internal/genai"
	"docugen/api/internal/identity"
	"docugen/api/internal/model"
)

type dataStore interface {
	GetProjects(ctx context.Context, userID string) ([]model.Project, error)
	GetProject(ctx context.Context, projectID, userID string) (model.Project, error)
	CreateProject(ctx context.Context, project model.Project, userID string) error
	UpdateProject(ctx context.Context, project model.Project) (model.Project, error)
	Ping(ctx context.Context) error
}

type identityProvider interface {
	SignUp(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) (identity.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (identity.Session, error)
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	OAuthAuthorizeURL(provider, redirectTo string) string
	SignOut(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken string) (*model.User, error)
	UpdatePasswordWithRecovery(ctx context.Context, recoveryToken, newPassword string) error
}

type contentGenerator interface {
	GenerateOutline(ctx context.Context, topic string, docType model.DocType) (genai.OutlineResult, error)
	GenerateSectionContent(ctx context.Context, topic, sectionTitle string, docType model.DocType) (genai.TextResult, error)
	RefineContent(ctx context.Context, currentContent, instruction string) (genai.TextResult, error)
}

type exporter interface {
	Export(project model.Project) (*export.Result, error)
}

// Service sequences the identity, store, generation, and export adapters.
// Handlers call it; it owns all cross-adapter rules, including the per-section
// generation guard.
type Service struct {
	store            dataStore
	identity         identityProvider
	generator        contentGenerator
	exporter         exporter
	resetRedirectURL string
	log              zerolog.Logger

	// inflight marks sections with a generation call in progress, keyed
	// projectID/sectionID. At most one generation per section at a time.
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewService(store dataStore, identity identityProvider, generator contentGenerator, exporter exporter, resetRedirectURL string, log zerolog.Logger) *Service {
	return &Service{
		store:            store,
		identity:         identity,
		generator:        generator,
		exporter:         exporter,
		resetRedirectURL: resetRedirectURL,
		log:              log,
		inflight:         make(map[string]struct{}),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Authenticate resolves a bearer token to a user. A missing or rejected token
// yields nil without error; only transport problems error.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	return s.identity.CurrentUser(ctx, accessToken)
}

type CreateProjectInput struct {
	Title         string   `json:"title"`
	Type          string   `json:"type"`
	MainTopic     string   `json:"mainTopic"`
	SectionTitles []string `json:"sectionTitles"`
}

// CreateProject materializes the wizard payload into a persisted project:
// one empty, ungenerated section per outline title. Nothing is returned on
// failure, so a failed create leaves no phantom entry for the caller to show.
func (s *Service) CreateProject(ctx context.Context, userID string, input CreateProjectInput) (model.Project, error) {
	title := strings.TrimSpace(input.Title)
	topic := strings.TrimSpace(input.MainTopic)
	docType := model.DocType(input.Type)
	if title == "" {
		return model.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if topic == "" {
		return model.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "mainTopic is required", nil)
	}
	if !docType.Valid() {
		return model.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "type must be DOCX or PPTX", nil)
	}
	if len(input.SectionTitles) == 0 {
		return model.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "at least one section title is required", nil)
	}

	now := time.Now().UnixMilli()
	sections := make([]model.Section, 0, len(input.SectionTitles))
	for _, sectionTitle := range input.SectionTitles {
		sections = append(sections, model.Section{
			ID:      uuid.NewString(),
			Title:   strings.TrimSpace(sectionTitle),
			History: []model.RefinementHistory{},
		})
	}

	project := model.Project{
		ID:        uuid.NewString(),
		Title:     title,
		Type:      docType,
		MainTopic: topic,
		Sections:  sections,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateProject(ctx, project, userID); err != nil {
		return model.Project{}, err
	}
	return project, nil
}

func (s *Service) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	return s.store.GetProjects(ctx, userID)
}

func (s *Service) GetProject(ctx context.Context, projectID, userID string) (model.Project, error) {
	return s.store.GetProject(ctx, projectID, userID)
}

type UpdateProjectInput struct {
	Title    string          `json:"title"`
	Sections []model.Section `json:"sections"`
}

// UpdateProject persists title and the whole section sequence immediately.
// Last write wins; there is no version check.
func (s *Service) UpdateProject(ctx context.Context, projectID, userID string, input UpdateProjectInput) (model.Project, error) {
	project, err := s.store.GetProject(ctx, projectID, userID)
	if err != nil {
		return model.Project{}, err
	}
	if title := strings.TrimSpace(input.Title); title != "" {
		project.Title = title
	}
	if input.Sections != nil {
		project.Sections = input.Sections
	}
	return s.store.UpdateProject(ctx, project)
}

// SuggestOutline is the wizard helper. The generator already masks transient
// failures with fixed fallbacks; only a missing API key surfaces.
func (s *Service) SuggestOutline(ctx context.Context, topic string, docType model.DocType) (genai.OutlineResult, error) {
	if strings.TrimSpace(topic) == "" {
		return genai.OutlineResult{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "topic is required", nil)
	}
	if !docType.Valid() {
		return genai.OutlineResult{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "type must be DOCX or PPTX", nil)
	}
	return s.generator.GenerateOutline(ctx, topic, docType)
}

// markInflight claims the section's generation slot. Returns false when a
// generation is already running for it.
func (s *Service) markInflight(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Service) clearInflight(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

// GenerateSection fills a section's content. It runs only when the content is
// empty, the section has never been generated, and no generation is in flight
// for it; otherwise the stored project comes back untouched. The generated
// flag is set even when the generator substitutes its error text, so the
// section is not retried automatically.
func (s *Service) GenerateSection(ctx context.Context, projectID, sectionID, userID string) (model.Project, error) {
	project, err := s.store.GetProject(ctx, projectID, userID)
	if err != nil {
		return model.Project{}, err
	}
	idx := project.SectionIndex(sectionID)
	if idx < 0 {
		return model.Project{}, domainError(http.StatusNotFound, "NOT_FOUND", "Section not found", nil)
	}
	section := project.Sections[idx]
	if section.Content != "" || section.IsGenerated {
		return project, nil
	}

	key := projectID + "/" + sectionID
	if !s.markInflight(key) {
		return project, nil
	}
	defer s.clearInflight(key)

	result, err := s.generator.GenerateSectionContent(ctx, project.MainTopic, section.Title, project.Type)
	if err != nil {
		return model.Project{}, err
	}

	project.Sections[idx].Content = result.Content
	project.Sections[idx].IsGenerated = true
	return s.store.UpdateProject(ctx, project)
}

// RefineSection rewrites a section under a free-text instruction. The history
// snapshot is appended before the content is replaced, so a later undo can
// restore exactly what the rewrite displaced. The generator returns the
// original content on failure, in which case the appended entry records a
// rewrite that changed nothing.
func (s *Service) RefineSection(ctx context.Context, projectID, sectionID, userID, instruction string) (model.Project, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return model.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "instruction is required", nil)
	}

	project, err := s.store.GetProject(ctx, projectID, userID)
	if err != nil {
		return model.Project{}, err
	}
	idx := project.SectionIndex(sectionID)
	if idx < 0 {
		return model.Project{}, domainError(http.StatusNotFound, "NOT_FOUND", "Section not found", nil)
	}
	section := &project.Sections[idx]

	result, err := s.generator.RefineContent(ctx, section.Content, instruction)
	if err != nil {
		return model.Project{}, err
	}

	section.History = append(section.History, model.RefinementHistory{
		Timestamp:       time.Now().UnixMilli(),
		Prompt:          instruction,
		PreviousContent: section.Content,
	})
	section.Content = result.Content
	section.IsGenerated = true
	return s.store.UpdateProject(ctx, project)
}

// UndoSection restores the content captured by the newest history entry. The
// entry stays in place, so undoing twice restores the same snapshot both
// times. With no history the project comes back unchanged.
func (s *Service) UndoSection(ctx context.Context, projectID, sectionID, userID string) (model.Project, error) {
	project, err := s.store.GetProject(ctx, projectID, userID)
	if err != nil {
		return model.Project{}, err
	}
	idx := project.SectionIndex(sectionID)
	if idx < 0 {
		return model.Project{}, domainError(http.StatusNotFound, "NOT_FOUND", "Section not found", nil)
	}
	section := &project.Sections[idx]
	if len(section.History) == 0 {
		return project, nil
	}

	last := section.History[len(section.History)-1]
	section.Content = last.PreviousContent
	section.IsGenerated = true
	return s.store.UpdateProject(ctx, project)
}

// ExportProject serializes the stored project. The artifact is fully built
// in memory before anything reaches the caller.
func (s *Service) ExportProject(ctx context.Context, projectID, userID string) (*export.Result, error) {
	project, err := s.store.GetProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(project)
}

// auth passthroughs

func (s *Service) SignUp(ctx context.Context, email, password string) error {
	return s.identity.SignUp(ctx, email, password)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	return s.identity.SignIn(ctx, email, password)
}

func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (identity.Session, error) {
	return s.identity.RefreshSession(ctx, refreshToken)
}

func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	return s.identity.SignOut(ctx, accessToken)
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	return s.identity.RequestPasswordReset(ctx, email, s.resetRedirectURL)
}

func (s *Service) UpdatePasswordWithRecovery(ctx context.Context, recoveryToken, newPassword string) error {
	return s.identity.UpdatePasswordWithRecovery(ctx, recoveryToken, newPassword)
}

func (s *Service) OAuthAuthorizeURL(provider, redirectTo string) string {
	return s.identity.OAuthAuthorizeURL(provider, redirectTo)
}
