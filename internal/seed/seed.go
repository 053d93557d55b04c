// Package seed fornece o dataset de anúncios usado na primeira inicialização
// para criar as contas padrão dos agricultores.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sokofresh/internal/domain"
)

//go:embed listings.yaml
var defaultListings []byte

type listingFile struct {
	Listings []domain.ProduceListing `yaml:"listings"`
}

// Source entrega a sequência ordenada de anúncios.
type Source interface {
	Listings() ([]domain.ProduceListing, error)
}

// FileSource lê os anúncios de um arquivo YAML; Path vazio usa a cópia embutida.
type FileSource struct {
	Path string
}

// Listings implementa Source.
func (s FileSource) Listings() ([]domain.ProduceListing, error) {
	data := defaultListings
	if s.Path != "" {
		raw, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, fmt.Errorf("seed: falha ao ler %s: %w", s.Path, err)
		}
		data = raw
	}
	return Parse(data)
}

// Parse decodifica o documento YAML de anúncios.
func Parse(data []byte) ([]domain.ProduceListing, error) {
	var f listingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: YAML inválido: %w", err)
	}
	return f.Listings, nil
}

// StaticSource devolve uma lista fixa (testes).
type StaticSource []domain.ProduceListing

// Listings implementa Source.
func (s StaticSource) Listings() ([]domain.ProduceListing, error) {
	return s, nil
}
