package stages

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type mockStageService struct {
	stages []domain.Stage
	calls  []string
}

func (m *mockStageService) List(context.Context) ([]domain.Stage, error) {
	return m.stages, nil
}

func (m *mockStageService) Get(_ context.Context, id string) (*domain.Stage, error) {
	for i := range m.stages {
		if m.stages[i].ID == id {
			return &m.stages[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStageService) Create(_ context.Context, name string) (*domain.Stage, error) {
	return &domain.Stage{ID: name, Name: name, IsActive: true}, nil
}

func (m *mockStageService) SetActive(_ context.Context, id string, active bool) (*domain.Stage, error) {
	m.calls = append(m.calls, id)
	for i := range m.stages {
		if m.stages[i].ID == id {
			st := m.stages[i]
			st.IsActive = active
			return &st, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStageService) Rename(context.Context, string, string) (*domain.Stage, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStageService) Delete(context.Context, string) error {
	return nil
}

func (m *mockStageService) Import(context.Context, []byte) ([]domain.Stage, error) {
	return nil, nil
}

func loadedView(t *testing.T, svc *mockStageService) *View {
	t.Helper()
	view := NewView(nil, svc)
	view.SetDimensions(80, 24)
	cmd := view.Load()
	require.NotNil(t, cmd)
	view.Update(cmd())
	return view
}

func sampleStages() []domain.Stage {
	return []domain.Stage{
		{ID: "s1", Name: "Onboarding", IsActive: true},
		{ID: "s2", Name: "Drafts", IsActive: false},
	}
}

func TestView_Load(t *testing.T) {
	view := loadedView(t, &mockStageService{stages: sampleStages()})

	require.Len(t, view.Stages(), 2)
	output := view.View()
	assert.Contains(t, output, "Stages (2)")
	assert.Contains(t, output, "[x] Onboarding")
	assert.Contains(t, output, "[ ] Drafts")
}

func TestView_Load_NoService(t *testing.T) {
	view := NewView(nil, nil)

	view.Update(view.Load()())

	assert.Error(t, view.Err())
}

func TestView_Toggle(t *testing.T) {
	svc := &mockStageService{stages: sampleStages()}
	view := loadedView(t, svc)
	view.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	require.NotNil(t, cmd)
	view.Update(cmd())

	assert.Equal(t, []string{"s2"}, svc.calls)
	assert.True(t, view.Stages()[1].IsActive)
	assert.Contains(t, view.View(), "Drafts is now searchable")
}

func TestView_Toggle_Error(t *testing.T) {
	view := loadedView(t, &mockStageService{stages: sampleStages()})

	view.Update(messages.StageToggled{Err: domain.ErrNotFound})

	assert.ErrorIs(t, view.Err(), domain.ErrNotFound)
}

func TestView_Empty(t *testing.T) {
	view := loadedView(t, &mockStageService{})

	assert.Contains(t, view.View(), "No stages")
}

func TestView_Esc(t *testing.T) {
	view := loadedView(t, &mockStageService{})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
