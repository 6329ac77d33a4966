package models

// Language describes a supported announcement language.
type Language struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
	Flag string `json:"flag" yaml:"flag"`
}

// DefaultLanguages is the built-in language table.
var DefaultLanguages = []Language{
	{Code: "en", Name: "English", Flag: "🇬🇧"},
	{Code: "hi", Name: "हिन्दी (Hindi)", Flag: "🇮🇳"},
	{Code: "es", Name: "Español (Spanish)", Flag: "🇪🇸"},
	{Code: "fr", Name: "Français (French)", Flag: "🇫🇷"},
	{Code: "ta", Name: "தமிழ் (Tamil)", Flag: "🇮🇳"},
}
