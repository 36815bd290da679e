package momentum

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/benvon/social-momentum/internal/services/ai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogCoversEveryCategory(t *testing.T) {
	t.Parallel()

	for _, category := range models.AllCategories {
		assert.NotEmpty(t, defaultCatalog[category], "category %s", category)
	}
	for _, tmpl := range defaultCatalog[models.CategoryStreakEncouragement] {
		assert.Contains(t, tmpl, "{streak}")
	}
}

func TestLoadTemplateCatalog(t *testing.T) {
	t.Parallel()

	_, err := LoadTemplateCatalog([]byte("general_tip:\n  - \"hi\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no templates for category")

	_, err = LoadTemplateCatalog([]byte("general_tip: [unterminated"))
	require.Error(t, err)
}

func TestGenerateTemplateFallback(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 20; seed++ {
		g := NewGenerator(nil, nil, rand.New(rand.NewSource(seed)), nil, nil)
		out := g.Generate(context.Background(), &PromptContext{
			Category: models.CategoryStreakEncouragement,
			Streak:   5,
		})
		require.True(t, out.FromTemplate)
		assert.Contains(t, out.Message, "5")
		assert.NotContains(t, out.Message, "{")
	}
}

func TestTemplateSuggestions(t *testing.T) {
	t.Parallel()

	catalog := TemplateCatalog{
		models.CategoryEventSuggestion: {"{event} is coming up."},
		models.CategoryFriendReconnect: {"Say hi to {friend}."},
		models.CategoryGeneralTip:      {"Keep going."},
	}
	g := NewGenerator(nil, catalog, rand.New(rand.NewSource(1)), nil, nil)
	event := NamedRef{ID: uuid.New(), Name: "Board Games Night"}
	friend := NamedRef{ID: uuid.New(), Name: "Sam"}

	out := g.Generate(context.Background(), &PromptContext{
		Category:       models.CategoryEventSuggestion,
		UpcomingEvents: []NamedRef{event},
		Friends:        []NamedRef{friend},
	})
	assert.Equal(t, "Board Games Night is coming up.", out.Message)
	require.NotNil(t, out.SuggestedEvent)
	assert.Equal(t, event.Name, *out.SuggestedEvent)
	assert.Nil(t, out.SuggestedFriend)

	out = g.Generate(context.Background(), &PromptContext{Category: models.CategoryFriendReconnect})
	assert.Equal(t, "Say hi to a friend.", out.Message)
	assert.Nil(t, out.SuggestedFriend)

	out = g.Generate(context.Background(), &PromptContext{Category: models.CategoryGeneralTip, Friends: []NamedRef{friend}})
	assert.Nil(t, out.SuggestedFriend)
}

func TestSanitizeForKids(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Let's grab a drink at the bar", "Let's grab a drink at the ***"},
		{"BEER and Wine tasting", "*** and *** tasting"},
		{"Join the barbecue!", "Join the barbecue!"},
		{"Save the date for the dating event", "Save the date for the *** event"},
		{"Play board games with friends", "Play board games with friends"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeForKids(tt.in))
	}
}

func TestGenerateAppliesKidFilter(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{content: `{"message": "Meet Sam at the pub tonight", "suggested_event": null, "suggested_friend": "Sam"}`}
	g := NewGenerator(provider, nil, rand.New(rand.NewSource(1)), nil, nil)

	out := g.Generate(context.Background(), &PromptContext{Category: models.CategoryFriendReconnect, KidSafe: true})
	assert.False(t, out.FromTemplate)
	assert.Equal(t, "Meet Sam at the *** tonight", out.Message)

	out = g.Generate(context.Background(), &PromptContext{Category: models.CategoryFriendReconnect})
	assert.Equal(t, "Meet Sam at the pub tonight", out.Message)
}

func TestGenerateWithProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		content      string
		err          error
		wantTemplate bool
		wantMessage  string
	}{
		{
			name:        "valid completion",
			content:     `{"message": "Game night is on Friday, want to come?", "suggested_event": "Game Night", "suggested_friend": null}`,
			wantMessage: "Game night is on Friday, want to come?",
		},
		{
			name:         "provider error",
			err:          &ai.APIError{StatusCode: 429, Message: "rate limit exceeded"},
			wantTemplate: true,
		},
		{
			name:         "non-json completion",
			content:      "Sure! Here's a nudge for you.",
			wantTemplate: true,
		},
		{
			name:         "empty message",
			content:      `{"message": "  "}`,
			wantTemplate: true,
		},
		{
			name:         "transport failure",
			err:          errors.New("connection reset"),
			wantTemplate: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			provider := &fakeProvider{content: tt.content, err: tt.err}
			g := NewGenerator(provider, nil, rand.New(rand.NewSource(1)), nil, nil)

			out := g.Generate(context.Background(), &PromptContext{
				DisplayName: "Alex",
				Category:    models.CategoryEventSuggestion,
			})
			assert.Equal(t, 1, provider.calls)
			assert.Equal(t, tt.wantTemplate, out.FromTemplate)
			assert.NotEmpty(t, out.Message)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, out.Message)
			}
			assert.Contains(t, provider.user, `"display_name":"Alex"`)
		})
	}
}

func TestParseCompletion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		wantErr     bool
		wantMessage string
		wantEvent   *string
		wantFriend  *string
	}{
		{
			name:        "plain object",
			content:     `{"message": "Hi there", "suggested_event": "Picnic", "suggested_friend": "Jo"}`,
			wantMessage: "Hi there",
			wantEvent:   ptr("Picnic"),
			wantFriend:  ptr("Jo"),
		},
		{
			name:        "object wrapped in prose",
			content:     "Here you go:\n```json\n{\"message\": \"Hi there\"}\n```",
			wantMessage: "Hi there",
		},
		{
			name:        "blank suggestions become nil",
			content:     `{"message": "Hi", "suggested_event": " ", "suggested_friend": ""}`,
			wantMessage: "Hi",
		},
		{name: "empty message", content: `{"message": ""}`, wantErr: true},
		{name: "no object", content: "hello", wantErr: true},
		{name: "too long", content: `{"message": "` + strings.Repeat("a", maxMessageLength+1) + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := parseCompletion(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMessage, out.Message)
			assert.Equal(t, tt.wantEvent, out.SuggestedEvent)
			assert.Equal(t, tt.wantFriend, out.SuggestedFriend)
		})
	}
}
