package geo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultDistricts returns the built-in district catalog for the Valle de
// Aburrá: the sixteen Medellín comunas plus the satellite municipalities
// that appear in crime reporting without barrio-level detail.
func DefaultDistricts() []District {
	return []District{
		{Code: "C01", Name: "Popular", Municipality: "Medellín"},
		{Code: "C02", Name: "Santa Cruz", Municipality: "Medellín"},
		{Code: "C03", Name: "Manrique", Municipality: "Medellín"},
		{Code: "C04", Name: "Aranjuez", Municipality: "Medellín"},
		{Code: "C05", Name: "Castilla", Municipality: "Medellín"},
		{Code: "C06", Name: "Doce de Octubre", Municipality: "Medellín"},
		{Code: "C07", Name: "Robledo", Municipality: "Medellín"},
		{Code: "C08", Name: "Villa Hermosa", Municipality: "Medellín"},
		{Code: "C09", Name: "Buenos Aires", Municipality: "Medellín"},
		{Code: "C10", Name: "La Candelaria", Municipality: "Medellín"},
		{Code: "C11", Name: "Laureles", Municipality: "Medellín"},
		{Code: "C12", Name: "La América", Municipality: "Medellín"},
		{Code: "C13", Name: "San Javier", Municipality: "Medellín"},
		{Code: "C14", Name: "Poblado", Municipality: "Medellín"},
		{Code: "C15", Name: "Guayabal", Municipality: "Medellín"},
		{Code: "C16", Name: "Belén", Municipality: "Medellín"},
		{Code: "BEL", Name: "Bello", Municipality: "Bello"},
		{Code: "ITA", Name: "Itagüí", Municipality: "Itagüí"},
		{Code: "ENV", Name: "Envigado", Municipality: "Envigado"},
	}
}

// districtsFile is the YAML shape of an optional district catalog override.
type districtsFile struct {
	Districts []District `yaml:"districts"`
}

// LoadDistrictsYAML reads a district catalog override file. An empty path
// returns the built-in catalog.
func LoadDistrictsYAML(path string) ([]District, error) {
	if path == "" {
		return DefaultDistricts(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading districts file: %w", err)
	}
	var df districtsFile
	if err := yaml.Unmarshal(raw, &df); err != nil {
		return nil, fmt.Errorf("parsing districts file: %w", err)
	}
	if len(df.Districts) == 0 {
		return nil, fmt.Errorf("districts file %s contains no districts", path)
	}
	return df.Districts, nil
}

// OrganizationNames lists the known criminal organizations offered to the
// configuration UI.
var OrganizationNames = []string{
	"La Oficina",
	"Clan del Golfo (AGC)",
	"Los Chatas",
	"Los Pachelly",
	"La Terraza",
	"Los Triana",
	"Los del 12 / Robledo",
	"La Sierra",
	"La Sintética (Belén Rincón)",
	"Other / Unknown",
}

// CriminalRankNames lists the known organizational ranks offered to the
// configuration UI.
var CriminalRankNames = []string{
	"Cabecilla (Kingpin/Leader)",
	"Coordinador (Manager)",
	"Lugarteniente (Lieutenant)",
	"Supervisor (Supervisor)",
	"Jíbaro/Raso (Low Level)",
	"Raso (Low Level)",
}

// Options is the reference-data bundle served to the configuration UI.
type Options struct {
	Organizations []string `json:"organizations"`
	Ranks         []string `json:"ranks"`
	Combos        []string `json:"combos"`
	Barrios       []string `json:"barrios"`
	Districts     []string `json:"comunas"`
}

// BuildOptions assembles the options bundle from an index.
func BuildOptions(idx *Index) Options {
	districts := make([]string, 0, len(idx.Districts()))
	for _, d := range idx.Districts() {
		districts = append(districts, d.Name)
	}
	return Options{
		Organizations: OrganizationNames,
		Ranks:         CriminalRankNames,
		Combos:        idx.Combos(),
		Barrios:       idx.Barrios(),
		Districts:     districts,
	}
}
