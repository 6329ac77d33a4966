package service

import (
	"github.com/noah-isme/pa-broadcaster/internal/models"
)

type fakeLanguages map[string]models.Language

func (f fakeLanguages) Lookup(code string) (models.Language, bool) {
	lang, ok := f[code]
	return lang, ok
}

func defaultLanguages() fakeLanguages {
	out := fakeLanguages{}
	for _, lang := range models.DefaultLanguages {
		out[lang.Code] = lang
	}
	return out
}
