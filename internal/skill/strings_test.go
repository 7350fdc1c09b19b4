package skill

import "testing"

func TestLocalize(t *testing.T) {
	cases := []struct {
		name   string
		locale string
		key    messageKey
		want   string
	}{
		{"english", "en-US", msgHello, "Hello"},
		{"english gb", "en-GB", msgHello, "Hello"},
		{"italian", "it-IT", msgHello, "Ciao"},
		{"french", "fr-FR", msgHello, "Bonjour"},
		{"spanish", "es-ES", msgHello, "Hola"},
		{"unknown language falls back", "de-DE", msgHello, "Hello"},
		{"bare language tag", "it", msgHello, "Ciao"},
		{"empty locale falls back", "", msgFallback, messages["en"][msgFallback]},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := localize(tc.locale, tc.key); got != tc.want {
				t.Errorf("localize(%q) = %q, want %q", tc.locale, got, tc.want)
			}
		})
	}
}

func TestAllLanguagesCoverAllKeys(t *testing.T) {
	keys := []messageKey{msgHello, msgFallback, msgErrorGeneric, msgErrorRegistration, msgLinkAccount}
	for lang, table := range messages {
		for _, key := range keys {
			if table[key] == "" {
				t.Errorf("Language %q is missing message %d", lang, key)
			}
		}
	}
}
