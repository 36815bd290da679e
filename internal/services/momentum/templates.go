package momentum

import (
	_ "embed"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/benvon/social-momentum/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Fallback labels when the context has no event or friend to name.
const (
	genericEvent  = "an upcoming event"
	genericFriend = "a friend"
)

// TemplateCatalog holds the fallback templates keyed by category.
type TemplateCatalog map[models.NudgeCategory][]string

// LoadTemplateCatalog parses a YAML catalog and checks every category has templates.
func LoadTemplateCatalog(data []byte) (TemplateCatalog, error) {
	var catalog TemplateCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	for _, category := range models.AllCategories {
		if len(catalog[category]) == 0 {
			return nil, fmt.Errorf("no templates for category %s", category)
		}
	}
	return catalog, nil
}

var defaultCatalog = func() TemplateCatalog {
	catalog, err := LoadTemplateCatalog(templatesYAML)
	if err != nil {
		panic(err)
	}
	return catalog
}()

// templateEngine fills templates picked with an injectable random source.
type templateEngine struct {
	catalog TemplateCatalog
	mu      sync.Mutex
	rng     *rand.Rand
}

func newTemplateEngine(catalog TemplateCatalog, rng *rand.Rand) *templateEngine {
	return &templateEngine{catalog: catalog, rng: rng}
}

func (e *templateEngine) pick(category models.NudgeCategory) string {
	options := e.catalog[category]
	if len(options) == 0 {
		options = e.catalog[models.CategoryGeneralTip]
	}
	e.mu.Lock()
	i := e.rng.Intn(len(options))
	e.mu.Unlock()
	return options[i]
}

// render fills a template for pctx and reports which suggestions it named.
func (e *templateEngine) render(pctx *PromptContext) *GeneratedNudge {
	tmpl := e.pick(pctx.Category)
	out := &GeneratedNudge{}

	event := genericEvent
	if len(pctx.UpcomingEvents) > 0 {
		event = pctx.UpcomingEvents[0].Name
		if strings.Contains(tmpl, "{event}") {
			out.SuggestedEvent = &event
		}
	}
	friend := genericFriend
	if len(pctx.Friends) > 0 {
		friend = pctx.Friends[0].Name
		if strings.Contains(tmpl, "{friend}") {
			out.SuggestedFriend = &friend
		}
	}

	out.Message = strings.NewReplacer(
		"{event}", event,
		"{friend}", friend,
		"{streak}", strconv.Itoa(pctx.Streak),
	).Replace(tmpl)
	return out
}
