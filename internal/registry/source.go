package registry

import (
	"github.com/xxxsen/embedserver/internal/config"
	"github.com/xxxsen/embedserver/internal/model"
)

// Source identifies where the active model comes from: CatalogSource or
// CustomSource.
type Source interface {
	SourceName() string
	isSource()
}

type CatalogSource struct {
	Name string
}

func (s CatalogSource) SourceName() string {
	return s.Name
}

func (CatalogSource) isSource() {}

// CustomDefinition is a user supplied model. Files maps the file name inside
// the model cache directory to the location it is fetched from.
type CustomDefinition struct {
	Name        string
	Dimension   int
	Description string
	Backend     string
	RemoteModel string
	Files       map[string]string
}

func (d CustomDefinition) Descriptor() model.ModelDescriptor {
	return model.ModelDescriptor{
		Name:        d.Name,
		Dimension:   d.Dimension,
		Description: d.Description,
	}
}

type CustomSource struct {
	Definition CustomDefinition
}

func (s CustomSource) SourceName() string {
	return s.Definition.Name
}

func (CustomSource) isSource() {}

// SourceFromConfig returns the source selected by the model section.
func SourceFromConfig(cfg config.ModelConfig) Source {
	if cfg.Custom == nil {
		return CatalogSource{Name: cfg.Name}
	}
	c := cfg.Custom
	desc := c.Description
	if desc == "" {
		desc = "user defined model"
	}
	return CustomSource{Definition: CustomDefinition{
		Name:        c.Name,
		Dimension:   c.Dimension,
		Description: desc,
		Backend:     c.Backend,
		RemoteModel: c.RemoteModel,
		Files: map[string]string{
			"model.onnx":              c.Files.OnnxFile,
			"tokenizer.json":          c.Files.TokenizerFile,
			"config.json":             c.Files.ConfigFile,
			"special_tokens_map.json": c.Files.SpecialTokensMapFile,
			"tokenizer_config.json":   c.Files.TokenizerConfigFile,
		},
	}}
}
