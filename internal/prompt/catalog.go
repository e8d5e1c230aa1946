package prompt

import "strings"

// Output models accepted by the renderer. Anything not listed here falls
// through to the paragraph renderer.
const (
	ModelVeo3         = "veo-3.0-generate-001"
	ModelVeo2         = "veo-2.0-generate-001"
	ModelVeo3Fast     = "veo-3.0-fast-generate-001"
	ModelVeo3Preview  = "veo-3.0-generate-preview"
	ModelGoogleFlow   = "google flow"
	ModelImage        = "image"
	noDialogue        = "Tanpa Dialog"
	languageIndonesia = "Indonesia"
	languageEnglish   = "Inggris"
)

var (
	timeOptions         = []string{"", "Pagi", "Siang", "Sore", "Malam", "Fajar", "Senja"}
	weatherOptions      = []string{"", "Cerah", "Berawan", "Hujan Ringan", "Hujan Deras", "Badai", "Berkabut", "Bersalju"}
	seasonOptions       = []string{"", "Musim Semi", "Musim Panas", "Musim Gugur", "Musim Dingin"}
	crowdLevelOptions   = []string{"", "Sepi", "Sedang", "Ramai"}
	styleOptions        = []string{"", "Cinematic", "Documentary", "Anime", "Fantasy", "Sci-Fi", "Vintage", "Noir"}
	focusOptions        = []string{"", "Deep focus", "Shallow focus", "Rack focus", "Soft focus"}
	colorGradingOptions = []string{"", "Vibrant", "Muted", "Sepia", "Black and White", "Technicolor", "Bleach Bypass"}
	dialogueTypeOptions = []string{"", noDialogue, "Monolog", "Dialog", "Narasi"}
	dialogueLangOptions = []string{"", languageIndonesia, languageEnglish}
	audioMoodOptions    = []string{"", "Tegang", "Tenang", "Senang", "Sedih", "Epik", "Misterius", "Romantis"}
	aspectRatioOptions  = []string{"", "16:9 (Lanskap)", "9:16 (Potret)"}
	outputModelOptions  = []string{ModelVeo3, ModelVeo2, ModelVeo3Fast, ModelVeo3Preview, ModelGoogleFlow, ModelImage}

	movementOptions = []string{
		"",
		"Static (Kamera diam, tidak bergerak)",
		"Pan (Kamera bergerak horizontal kiri/kanan)",
		"Tilt (Kamera bergerak vertikal atas/bawah)",
		"Dolly (Kamera bergerak maju/mundur)",
		"Truck (Kamera bergerak ke samping kiri/kanan)",
		"Crane (Kamera bergerak naik/turun secara signifikan)",
		"Handheld (Kamera dipegang tangan, goyangan alami)",
		"Steadicam (Gerakan kamera halus mengikuti subjek)",
		"Zoom (Lensa mendekat/menjauh dari subjek)",
	}
	angleOptions = []string{
		"",
		"Eye-level (Sejajar mata subjek, netral)",
		"High-angle (Dari atas, subjek tampak kecil/rentan)",
		"Low-angle (Dari bawah, subjek tampak kuat/dominan)",
		"Dutch angle (Kamera miring, menciptakan ketegangan)",
		"Bird's-eye view (Tepat dari atas, seperti mata burung)",
		"Worm's-eye view (Tepat dari bawah, seperti mata cacing)",
	}
	lightingOptions = []string{
		"",
		"Natural light (Cahaya alami dari matahari)",
		"Studio light (Pencahayaan terkontrol di studio)",
		"Low-key (Kontras tinggi, banyak bayangan, dramatis)",
		"High-key (Terang, minim bayangan, ceria)",
		"Golden hour (Cahaya hangat saat matahari terbit/terbenam)",
		"Blue hour (Cahaya sejuk kebiruan setelah matahari terbenam)",
		"Backlight (Cahaya dari belakang subjek, menciptakan siluet)",
	}
	visualStyleOptions = []string{
		"",
		"Realistic",
		"Hyper Realistic",
		"Cartoon 3D",
		"Pixar",
		"DreamWorks",
		"Anime",
		"Comic / Cel Shaded",
		"Oil Painting",
		"Watercolor",
		"Cyberpunk",
		"Pixel Art",
		"Lego",
	}
)

// Options returns the selectable values of every select-style field, keyed
// the same way as SetField. Callers get their own copies.
func Options() map[string][]string {
	return map[string][]string{
		"background.time":       clone(timeOptions),
		"background.weather":    clone(weatherOptions),
		"background.season":     clone(seasonOptions),
		"background.crowdLevel": clone(crowdLevelOptions),
		"camera.style":          clone(styleOptions),
		"camera.movement":       clone(movementOptions),
		"camera.angle":          clone(angleOptions),
		"camera.focus":          clone(focusOptions),
		"camera.lighting":       clone(lightingOptions),
		"camera.colorGrading":   clone(colorGradingOptions),
		"audio.dialogueType":    clone(dialogueTypeOptions),
		"audio.mood":            clone(audioMoodOptions),
		"dialogue.language":     clone(dialogueLangOptions),
		"aspectRatio":           clone(aspectRatioOptions),
		"visualStyle":           clone(visualStyleOptions),
		"outputModel":           clone(outputModelOptions),
		"template":              TemplateNames(),
	}
}

var fieldKeys = []string{
	"mainDescription",
	"visualStyle",
	"videoQuality",
	"aspectRatio",
	"additionalDetails",
	"negativePrompt",
	"outputModel",
	"background.location",
	"background.time",
	"background.weather",
	"background.season",
	"background.crowdLevel",
	"camera.style",
	"camera.movement",
	"camera.angle",
	"camera.focus",
	"camera.lighting",
	"camera.colorGrading",
	"audio.dialogueType",
	"audio.dialogueTone",
	"audio.mood",
	"audio.ambientSound",
	"audio.backgroundMusic",
}

// FieldKeys lists every key SetField accepts, in form order.
func FieldKeys() []string {
	return clone(fieldKeys)
}

func OutputModels() []string {
	return clone(outputModelOptions)
}

// EnOption extracts the English term from a bilingual option label of the
// form "English Term (Indonesian explanation)".
func EnOption(value string) string {
	if idx := strings.Index(value, " ("); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}

var dialogueTypeEN = map[string]string{
	"Monolog": "Monologue",
	"Dialog":  "Dialogue",
	"Narasi":  "Narration",
}

func englishDialogueType(value string) string {
	if en, ok := dialogueTypeEN[value]; ok {
		return en
	}
	return value
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
