package skill

import "strings"

type messageKey int

const (
	msgHello messageKey = iota
	msgFallback
	msgErrorGeneric
	msgErrorRegistration
	msgLinkAccount
)

// messages holds the localized reply strings, keyed by language prefix.
// English is the fallback for any unknown locale.
var messages = map[string]map[messageKey]string{
	"en": {
		msgHello:        "Hello",
		msgFallback:     "I'm sorry, I don't understand that question!",
		msgErrorGeneric: "Something went wrong, try again later!",
		msgErrorRegistration: "There was an error registering the device with the Google API. " +
			"Make sure that you are logged into the same Google account that created the API project.",
		msgLinkAccount: "You must link your Google account to use this skill. " +
			"Please use the link in the Alexa app to authorise your Google account.",
	},
	"it": {
		msgHello:             "Ciao",
		msgFallback:          "Scusa, non ho capito!",
		msgErrorGeneric:      "Qualcosa è andato storto, riprova più tardi!",
		msgErrorRegistration: "Si è verificato un errore con la registrazione del dispositivo. Riprova più tardi!",
		msgLinkAccount: "Per usare questa skill devi collegare il tuo account Google. " +
			"Usa l'app Alexa per collegare il tuo account Amazon con il tuo account Google.",
	},
	"fr": {
		msgHello:             "Bonjour",
		msgFallback:          "Désolé, je n'ai pas compris la question !",
		msgErrorGeneric:      "Une erreur s'est produite, réessayez plus tard !",
		msgErrorRegistration: "Une erreur s'est produite lors de l'enregistrement de l'appareil. Réessayez plus tard !",
		msgLinkAccount: "Vous devez associer votre compte Google pour utiliser cette skill. " +
			"Utilisez le lien dans l'application Alexa pour autoriser votre compte Google.",
	},
	"es": {
		msgHello:             "Hola",
		msgFallback:          "Lo siento, ¡no he entendido la pregunta!",
		msgErrorGeneric:      "Algo salió mal, ¡inténtalo de nuevo más tarde!",
		msgErrorRegistration: "Se produjo un error al registrar el dispositivo. ¡Inténtalo de nuevo más tarde!",
		msgLinkAccount: "Debes vincular tu cuenta de Google para usar esta skill. " +
			"Usa el enlace de la aplicación Alexa para autorizar tu cuenta de Google.",
	},
}

// localize resolves a message for a locale like "it-IT", falling back to
// English for unknown languages.
func localize(locale string, key messageKey) string {
	lang := locale
	if i := strings.Index(lang, "-"); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.ToLower(lang)

	if table, ok := messages[lang]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	return messages["en"][key]
}
