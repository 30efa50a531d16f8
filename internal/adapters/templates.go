package adapters

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/canonica-labs/esql/internal/capabilities"
	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/jsonx"
	"github.com/canonica-labs/esql/internal/mapping"
	"github.com/canonica-labs/esql/internal/table"
	"github.com/canonica-labs/esql/pkg/api"
	"github.com/canonica-labs/esql/pkg/models"
)

// patterns accepts index_patterns as a single string or a list.
type patterns []string

func (p *patterns) UnmarshalJSON(data []byte) error {
	var one string
	if err := jsonx.Unmarshal(data, &one); err == nil {
		*p = patterns{one}
		return nil
	}
	var many []string
	if err := jsonx.Unmarshal(data, &many); err != nil {
		return err
	}
	*p = many
	return nil
}

// legacyTemplate is the body of /_template/{name}. Before 6.0 the pattern
// is a single string under "template".
type legacyTemplate struct {
	IndexPatterns patterns       `json:"index_patterns,omitempty"`
	Template      string         `json:"template,omitempty"`
	Order         int64          `json:"order"`
	Version       *int64         `json:"version,omitempty"`
	Settings      map[string]any `json:"settings,omitempty"`
	Mappings      map[string]any `json:"mappings,omitempty"`
	Aliases       map[string]any `json:"aliases,omitempty"`
}

type templateSection struct {
	Settings map[string]any `json:"settings,omitempty"`
	Mappings map[string]any `json:"mappings,omitempty"`
	Aliases  map[string]any `json:"aliases,omitempty"`
}

// composableTemplate is the body of /_index_template/{name}.
type composableTemplate struct {
	IndexPatterns patterns         `json:"index_patterns"`
	Template      *templateSection `json:"template,omitempty"`
	Priority      int64            `json:"priority"`
	Version       *int64           `json:"version,omitempty"`
	Meta          map[string]any   `json:"_meta,omitempty"`
	ComposedOf    []string         `json:"composed_of,omitempty"`
}

type composableList struct {
	IndexTemplates []struct {
		Name          string             `json:"name"`
		IndexTemplate composableTemplate `json:"index_template"`
	} `json:"index_templates"`
}

func requireKind(op string, kind models.TemplateKind) (models.TemplateKind, error) {
	k, err := models.ParseTemplateKind(string(kind))
	if err != nil {
		return "", cerrors.NewValidation(op, "type", err.Error(), "use legacy or composable")
	}
	return k, nil
}

func templatePath(kind models.TemplateKind, name string) string {
	if kind == models.TemplateComposable {
		return api.EndpointIndexTemplate + "/" + name
	}
	return api.EndpointLegacyTemplate + "/" + name
}

// ListTemplates lists legacy templates, then composable templates where
// the cluster has them, each group sorted by name.
func (b *base) ListTemplates(ctx context.Context) ([]models.TemplateListItem, error) {
	raw, err := b.send(ctx, "list templates", http.MethodGet, api.EndpointCatTemplates, nil, nil)
	if err != nil {
		return nil, err
	}
	var legacy []string
	for _, line := range strings.Split(string(raw), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			legacy = append(legacy, name)
		}
	}
	sort.Strings(legacy)

	items := make([]models.TemplateListItem, 0, len(legacy))
	for _, name := range legacy {
		items = append(items, models.TemplateListItem{Name: name, Kind: models.TemplateLegacy})
	}
	if !b.caps.Has(capabilities.CapabilityComposableTemplates) {
		return items, nil
	}

	var list composableList
	if err := b.fetch(ctx, "list templates", api.EndpointIndexTemplate, nil, &list); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list.IndexTemplates))
	for _, t := range list.IndexTemplates {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	for _, name := range names {
		items = append(items, models.TemplateListItem{Name: name, Kind: models.TemplateComposable})
	}
	return items, nil
}

// GetTemplate reads one template. Mappings come back typeless for both
// kinds so the result can be put back unchanged.
func (b *base) GetTemplate(ctx context.Context, name string, kind models.TemplateKind) (*models.IndexTemplate, error) {
	const op = "get template"
	kind, err := requireKind(op, kind)
	if err != nil {
		return nil, err
	}
	if err := requireName(op, "name", name); err != nil {
		return nil, err
	}
	if kind == models.TemplateComposable {
		if err := b.requireCap(op, capabilities.CapabilityComposableTemplates); err != nil {
			return nil, err
		}
		return b.getComposable(ctx, name)
	}
	return b.getLegacy(ctx, name)
}

func (b *base) getLegacy(ctx context.Context, name string) (*models.IndexTemplate, error) {
	const op = "get template"
	var resp map[string]legacyTemplate
	if err := b.fetch(ctx, op, templatePath(models.TemplateLegacy, name), nil, &resp); err != nil {
		return nil, err
	}
	t, ok := resp[name]
	if !ok {
		return nil, cerrors.NewValidation(op, "name", "template "+name+" does not exist", "")
	}
	out := &models.IndexTemplate{
		Name:          name,
		IndexPatterns: []string(t.IndexPatterns),
		Settings:      t.Settings,
		Mappings:      typelessMappings(t.Mappings),
		Aliases:       t.Aliases,
		Priority:      t.Order,
	}
	if len(out.IndexPatterns) == 0 && t.Template != "" {
		out.IndexPatterns = []string{t.Template}
	}
	if t.Version != nil {
		out.Version = *t.Version
	}
	return out, nil
}

func (b *base) getComposable(ctx context.Context, name string) (*models.IndexTemplate, error) {
	const op = "get template"
	var list composableList
	if err := b.fetch(ctx, op, templatePath(models.TemplateComposable, name), nil, &list); err != nil {
		return nil, err
	}
	if len(list.IndexTemplates) == 0 {
		return nil, cerrors.NewValidation(op, "name", "template "+name+" does not exist", "")
	}
	entry := list.IndexTemplates[0]
	t := entry.IndexTemplate
	out := &models.IndexTemplate{
		Name:          entry.Name,
		IndexPatterns: []string(t.IndexPatterns),
		Priority:      t.Priority,
		ComposedOf:    t.ComposedOf,
	}
	if t.Template != nil {
		out.Settings = t.Template.Settings
		out.Mappings = typelessMappings(t.Template.Mappings)
		out.Aliases = t.Template.Aliases
	}
	if t.Version != nil {
		out.Version = *t.Version
	}
	if len(t.Meta) > 0 {
		out.Meta = make(map[string]string, len(t.Meta))
		for k, v := range t.Meta {
			out.Meta[k] = table.FormatValue(v)
		}
	}
	return out, nil
}

// PutTemplate creates or replaces a template.
func (b *base) PutTemplate(ctx context.Context, kind models.TemplateKind, tmpl *models.IndexTemplate) error {
	const op = "put template"
	kind, err := requireKind(op, kind)
	if err != nil {
		return err
	}
	if tmpl == nil {
		return cerrors.NewValidation(op, "template", "template is nil", "")
	}
	if err := requireName(op, "name", tmpl.Name); err != nil {
		return err
	}
	if len(tmpl.IndexPatterns) == 0 {
		return cerrors.NewValidation(op, "index_patterns", "at least one index pattern is required", "")
	}

	if kind == models.TemplateComposable {
		if err := b.requireCap(op, capabilities.CapabilityComposableTemplates); err != nil {
			return err
		}
		body := composableTemplate{
			IndexPatterns: tmpl.IndexPatterns,
			Priority:      tmpl.Priority,
			ComposedOf:    tmpl.ComposedOf,
		}
		if tmpl.Version != 0 {
			v := tmpl.Version
			body.Version = &v
		}
		if len(tmpl.Meta) > 0 {
			body.Meta = make(map[string]any, len(tmpl.Meta))
			for k, v := range tmpl.Meta {
				body.Meta[k] = v
			}
		}
		if tmpl.Settings != nil || tmpl.Mappings != nil || tmpl.Aliases != nil {
			body.Template = &templateSection{
				Settings: tmpl.Settings,
				Mappings: typelessMappings(tmpl.Mappings),
				Aliases:  tmpl.Aliases,
			}
		}
		_, err := b.send(ctx, op, http.MethodPut, templatePath(kind, tmpl.Name), nil, body)
		return err
	}

	body := legacyTemplate{
		Order:    tmpl.Priority,
		Settings: tmpl.Settings,
		Aliases:  tmpl.Aliases,
	}
	if b.major < 6 {
		body.Template = tmpl.IndexPatterns[0]
	} else {
		body.IndexPatterns = tmpl.IndexPatterns
	}
	if tmpl.Version != 0 {
		v := tmpl.Version
		body.Version = &v
	}
	params := url.Values{}
	body.Mappings = b.templateMappings(tmpl.Mappings, params)
	_, err = b.send(ctx, op, http.MethodPut, templatePath(kind, tmpl.Name), params, body)
	return err
}

// templateMappings shapes legacy template mappings: a type wrapper is
// required before 7.0, optional with include_type_name on 7.x, and
// rejected from 8.0.
func (b *base) templateMappings(m map[string]any, params url.Values) map[string]any {
	if m == nil {
		return nil
	}
	_, _, typed := typeWrapper(m)
	switch {
	case b.major < 7:
		if typed {
			return m
		}
		return map[string]any{mapping.DefaultTypeName: m}
	case b.caps.Has(capabilities.CapabilityIncludeTypeName):
		if typed {
			params.Set("include_type_name", "true")
		}
		return m
	default:
		return typelessMappings(m)
	}
}

// DeleteTemplate deletes a template.
func (b *base) DeleteTemplate(ctx context.Context, name string, kind models.TemplateKind) error {
	const op = "delete template"
	kind, err := requireKind(op, kind)
	if err != nil {
		return err
	}
	if err := requireName(op, "name", name); err != nil {
		return err
	}
	if kind == models.TemplateComposable {
		if err := b.requireCap(op, capabilities.CapabilityComposableTemplates); err != nil {
			return err
		}
	}
	_, err = b.send(ctx, op, http.MethodDelete, templatePath(kind, name), nil, nil)
	return err
}

// mappingKeywords are top-level mapping parameters that are never a type name.
var mappingKeywords = map[string]bool{
	"properties":           true,
	"runtime":              true,
	"dynamic":              true,
	"dynamic_templates":    true,
	"dynamic_date_formats": true,
	"date_detection":       true,
	"numeric_detection":    true,
	"subobjects":           true,
}

// typeWrapper reports whether m is a mapping nested under a single type
// name, {type: {...}}, and returns the name and the inner mapping.
func typeWrapper(m map[string]any) (string, map[string]any, bool) {
	if len(m) != 1 {
		return "", nil, false
	}
	for name, v := range m {
		inner, ok := v.(map[string]any)
		if !ok || mappingKeywords[name] || strings.HasPrefix(name, "_") && name != mapping.DefaultTypeName {
			return "", nil, false
		}
		return name, inner, true
	}
	return "", nil, false
}

// typelessMappings unwraps a single type wrapper.
func typelessMappings(m map[string]any) map[string]any {
	if _, inner, ok := typeWrapper(m); ok {
		return inner
	}
	return m
}
