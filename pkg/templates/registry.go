// Package templates loads the reference images used for reward detection.
package templates

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"jordanella.com/kanjuden-gym/internal/cv"
)

// TemplateRegistry holds the reward templates in load order. Relative image
// paths resolve against basePath and pixels are decoded on first use.
type TemplateRegistry struct {
	mu         sync.RWMutex
	templates  map[string]cv.Template
	order      []string
	basePath   string
	imageCache *ImageCache
}

// TemplateDefinition is one entry of templates.yaml. A zero threshold means
// cv.DefaultThreshold.
type TemplateDefinition struct {
	Name      string     `yaml:"name"`
	Path      string     `yaml:"path"`
	Threshold float64    `yaml:"threshold,omitempty"`
	Region    *RegionDef `yaml:"region,omitempty"`
	Preload   bool       `yaml:"preload,omitempty"` // Load image at startup
}

// RegionDef is in observation coordinates with exclusive x2/y2.
type RegionDef struct {
	X1 int `yaml:"x1"`
	Y1 int `yaml:"y1"`
	X2 int `yaml:"x2"`
	Y2 int `yaml:"y2"`
}

type TemplateFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

func NewTemplateRegistry(basePath string) *TemplateRegistry {
	return &TemplateRegistry{
		templates:  make(map[string]cv.Template),
		basePath:   basePath,
		imageCache: NewImageCache(),
	}
}

// LoadFromFile loads templates from a YAML file
func (tr *TemplateRegistry) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read template file %s: %w", filePath, err)
	}
	return tr.LoadFromBytes(data)
}

// LoadFromBytes validates every entry before registering any of them.
// Images are not read here; see PreloadAll.
func (tr *TemplateRegistry) LoadFromBytes(data []byte) error {
	var templateFile TemplateFile
	if err := yaml.Unmarshal(data, &templateFile); err != nil {
		return fmt.Errorf("failed to unmarshal template YAML: %w", err)
	}

	for i, def := range templateFile.Templates {
		if def.Name == "" {
			return fmt.Errorf("template %d: name cannot be empty", i+1)
		}
		if def.Path == "" {
			return fmt.Errorf("template %d (%s): path cannot be empty", i+1, def.Name)
		}
		if def.Threshold < 0 || def.Threshold > 1 {
			return fmt.Errorf("template %d (%s): threshold %v outside [0, 1]", i+1, def.Name, def.Threshold)
		}
	}

	for _, def := range templateFile.Templates {
		path := def.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(tr.basePath, path)
		}

		tmpl := def.template(path)
		tr.put(tmpl)
		tr.imageCache.Register(tmpl, def.Preload)
	}

	return nil
}

func (def TemplateDefinition) template(path string) cv.Template {
	tmpl := cv.Template{Name: def.Name, Path: path, Threshold: def.Threshold}
	if tmpl.Threshold == 0 {
		tmpl.Threshold = cv.DefaultThreshold
	}
	if r := def.Region; r != nil {
		tmpl = tmpl.InRegion(r.X1, r.Y1, r.X2, r.Y2)
	}
	return tmpl
}

func (tr *TemplateRegistry) put(template cv.Template) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, exists := tr.templates[template.Name]; !exists {
		tr.order = append(tr.order, template.Name)
	}
	tr.templates[template.Name] = template
}

// Image returns the grayscale pixels for a registered template. The
// template metadata is returned even when its image failed to load.
func (tr *TemplateRegistry) Image(name string) (*image.Gray, cv.Template, error) {
	return tr.imageCache.Get(name)
}

func (tr *TemplateRegistry) Has(name string) bool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	_, ok := tr.templates[name]
	return ok
}

// List returns all template names in load order
func (tr *TemplateRegistry) List() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	names := make([]string, len(tr.order))
	copy(names, tr.order)
	return names
}

// PreloadAll decodes every template marked preload. A failed template stays
// registered; later lookups return the same error without reading the disk
// again.
func (tr *TemplateRegistry) PreloadAll() error {
	return tr.imageCache.PreloadAll()
}

func (tr *TemplateRegistry) CacheStats() CacheStats {
	return tr.imageCache.Stats()
}
