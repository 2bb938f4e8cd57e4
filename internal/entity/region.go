package entity

import "strings"

// Macro-regiões do IBGE. Usadas só para agregação de estatísticas.
const RegionUnknown = "DESCONHECIDA"

var regionByUF = map[string]string{
	"AC": "NORTE", "AP": "NORTE", "AM": "NORTE", "PA": "NORTE",
	"RO": "NORTE", "RR": "NORTE", "TO": "NORTE",

	"AL": "NORDESTE", "BA": "NORDESTE", "CE": "NORDESTE", "MA": "NORDESTE",
	"PB": "NORDESTE", "PE": "NORDESTE", "PI": "NORDESTE", "RN": "NORDESTE",
	"SE": "NORDESTE",

	"DF": "CENTRO-OESTE", "GO": "CENTRO-OESTE", "MT": "CENTRO-OESTE",
	"MS": "CENTRO-OESTE",

	"ES": "SUDESTE", "MG": "SUDESTE", "RJ": "SUDESTE", "SP": "SUDESTE",

	"PR": "SUL", "RS": "SUL", "SC": "SUL",
}

// RegionForState aceita a UF como vier da planilha ("sp", " SP ").
func RegionForState(uf string) string {
	region, ok := regionByUF[strings.ToUpper(strings.TrimSpace(uf))]
	if !ok {
		return RegionUnknown
	}
	return region
}
