package prompt

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"veo-prompt-studio/internal/apperr"
)

const DefaultOutputModel = "veo-3.0-generate-001"

type State struct {
	MainDescription   string      `json:"mainDescription"`
	Characters        []Character `json:"characters"`
	Background        Background  `json:"background"`
	Camera            Camera      `json:"camera"`
	Audio             Audio       `json:"audio"`
	VideoQuality      string      `json:"videoQuality"`
	VisualStyle       string      `json:"visualStyle"`
	AdditionalDetails string      `json:"additionalDetails"`
	AspectRatio       string      `json:"aspectRatio"`
	NegativePrompt    string      `json:"negativePrompt"`
	OutputModel       string      `json:"outputModel"`
}

type Background struct {
	Location   string `json:"location"`
	Time       string `json:"time"`
	Weather    string `json:"weather"`
	Season     string `json:"season"`
	CrowdLevel string `json:"crowdLevel"`
}

type Camera struct {
	Style        string `json:"style"`
	Movement     string `json:"movement"`
	Angle        string `json:"angle"`
	Focus        string `json:"focus"`
	Lighting     string `json:"lighting"`
	ColorGrading string `json:"colorGrading"`
}

type Audio struct {
	DialogueType    string         `json:"dialogueType"`
	DialogueTone    string         `json:"dialogueTone"`
	Dialogues       []DialogueLine `json:"dialogues"`
	Mood            string         `json:"mood"`
	AmbientSound    string         `json:"ambientSound"`
	BackgroundMusic string         `json:"backgroundMusic"`
}

type DialogueLine struct {
	ID       string `json:"id"`
	Speaker  string `json:"speaker"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// ImageRef is an uploaded image kept inline as a data URI.
type ImageRef struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

type Character struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Nationality            string    `json:"nationality"`
	Characteristics        string    `json:"characteristics"`
	Clothing               string    `json:"clothing"`
	MainAction             string    `json:"mainAction"`
	Emotion                string    `json:"emotion"`
	ReferenceImage         *ImageRef `json:"referenceImage"`
	ClothingReferenceImage *ImageRef `json:"clothingReferenceImage"`

	// Derived by the preview refresher; never part of the export.
	PreviewDescription string `json:"previewDescription,omitempty"`
	PreviewImageURL    string `json:"previewImageUrl,omitempty"`
}

type ImageSlot string

const (
	SlotReference         ImageSlot = "reference"
	SlotClothingReference ImageSlot = "clothing"
)

func NewState() State {
	return State{OutputModel: DefaultOutputModel}
}

// Clone returns a copy that shares no slices or image pointers with s.
func (s State) Clone() State {
	out := s
	if s.Characters != nil {
		out.Characters = make([]Character, len(s.Characters))
		for i, c := range s.Characters {
			out.Characters[i] = c.clone()
		}
	}
	out.Audio.Dialogues = cloneDialogues(s.Audio.Dialogues)
	return out
}

func (c Character) clone() Character {
	out := c
	if c.ReferenceImage != nil {
		ref := *c.ReferenceImage
		out.ReferenceImage = &ref
	}
	if c.ClothingReferenceImage != nil {
		ref := *c.ClothingReferenceImage
		out.ClothingReferenceImage = &ref
	}
	return out
}

func cloneDialogues(in []DialogueLine) []DialogueLine {
	if in == nil {
		return nil
	}
	out := make([]DialogueLine, len(in))
	copy(out, in)
	return out
}

func (s State) Character(id string) (Character, bool) {
	for _, c := range s.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

// SetField assigns a scalar field addressed by its JSON name, using a
// "section.field" key for background, camera and audio fields.
func SetField(s State, key, value string) (State, error) {
	out := s.Clone()
	switch strings.TrimSpace(key) {
	case "mainDescription":
		out.MainDescription = value
	case "videoQuality":
		out.VideoQuality = value
	case "visualStyle":
		out.VisualStyle = value
	case "additionalDetails":
		out.AdditionalDetails = value
	case "aspectRatio":
		out.AspectRatio = value
	case "negativePrompt":
		out.NegativePrompt = value
	case "outputModel":
		out.OutputModel = value
	case "background.location":
		out.Background.Location = value
	case "background.time":
		out.Background.Time = value
	case "background.weather":
		out.Background.Weather = value
	case "background.season":
		out.Background.Season = value
	case "background.crowdLevel":
		out.Background.CrowdLevel = value
	case "camera.style":
		out.Camera.Style = value
	case "camera.movement":
		out.Camera.Movement = value
	case "camera.angle":
		out.Camera.Angle = value
	case "camera.focus":
		out.Camera.Focus = value
	case "camera.lighting":
		out.Camera.Lighting = value
	case "camera.colorGrading":
		out.Camera.ColorGrading = value
	case "audio.dialogueType":
		out.Audio.DialogueType = value
	case "audio.dialogueTone":
		out.Audio.DialogueTone = value
	case "audio.mood":
		out.Audio.Mood = value
	case "audio.ambientSound":
		out.Audio.AmbientSound = value
	case "audio.backgroundMusic":
		out.Audio.BackgroundMusic = value
	default:
		return s, apperr.Validation(fmt.Sprintf("field %q tidak dikenal", key), nil)
	}
	return out, nil
}

func AddCharacter(s State) (State, string) {
	out := s.Clone()
	id := uuid.NewString()
	out.Characters = append(out.Characters, Character{ID: id})
	return out, id
}

func RemoveCharacter(s State, id string) State {
	out := s.Clone()
	kept := make([]Character, 0, len(out.Characters))
	for _, c := range out.Characters {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	out.Characters = kept
	return out
}

func UpdateCharacter(s State, id, field, value string) (State, error) {
	return mapCharacter(s, id, func(c *Character) error {
		switch field {
		case "name":
			c.Name = value
		case "nationality":
			c.Nationality = value
		case "characteristics":
			c.Characteristics = value
		case "clothing":
			c.Clothing = value
		case "mainAction":
			c.MainAction = value
		case "emotion":
			c.Emotion = value
		default:
			return apperr.Validation(fmt.Sprintf("field karakter %q tidak dikenal", field), nil)
		}
		return nil
	})
}

// SetCharacterImage stores or, with a nil ref, clears one image slot.
func SetCharacterImage(s State, id string, slot ImageSlot, ref *ImageRef) (State, error) {
	return mapCharacter(s, id, func(c *Character) error {
		var stored *ImageRef
		if ref != nil {
			cp := *ref
			stored = &cp
		}
		switch slot {
		case SlotReference:
			c.ReferenceImage = stored
		case SlotClothingReference:
			c.ClothingReferenceImage = stored
		default:
			return apperr.Validation(fmt.Sprintf("slot gambar %q tidak dikenal", slot), nil)
		}
		return nil
	})
}

func SetPreviewDescription(s State, id, description string) (State, error) {
	return mapCharacter(s, id, func(c *Character) error {
		c.PreviewDescription = description
		return nil
	})
}

func SetPreviewImage(s State, id, imageURL string) (State, error) {
	return mapCharacter(s, id, func(c *Character) error {
		c.PreviewImageURL = imageURL
		return nil
	})
}

func ClearPreview(s State, id string) (State, error) {
	return mapCharacter(s, id, func(c *Character) error {
		c.PreviewDescription = ""
		c.PreviewImageURL = ""
		return nil
	})
}

func mapCharacter(s State, id string, fn func(*Character) error) (State, error) {
	out := s.Clone()
	for i := range out.Characters {
		if out.Characters[i].ID != id {
			continue
		}
		if err := fn(&out.Characters[i]); err != nil {
			return s, err
		}
		return out, nil
	}
	return s, apperr.NotFound(fmt.Sprintf("karakter %q tidak ditemukan", id))
}

func AddDialogueLine(s State) (State, string) {
	out := s.Clone()
	id := uuid.NewString()
	out.Audio.Dialogues = append(out.Audio.Dialogues, DialogueLine{ID: id, Language: "Indonesia"})
	return out, id
}

func RemoveDialogueLine(s State, id string) State {
	out := s.Clone()
	kept := make([]DialogueLine, 0, len(out.Audio.Dialogues))
	for _, d := range out.Audio.Dialogues {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	out.Audio.Dialogues = kept
	return out
}

func UpdateDialogueLine(s State, id, field, value string) (State, error) {
	out := s.Clone()
	for i := range out.Audio.Dialogues {
		d := &out.Audio.Dialogues[i]
		if d.ID != id {
			continue
		}
		switch field {
		case "speaker":
			d.Speaker = value
		case "content":
			d.Content = value
		case "language":
			d.Language = value
		default:
			return s, apperr.Validation(fmt.Sprintf("field dialog %q tidak dikenal", field), nil)
		}
		return out, nil
	}
	return s, apperr.NotFound(fmt.Sprintf("baris dialog %q tidak ditemukan", id))
}
