package models

// FieldKey names one questionnaire answer. The set is closed; see FieldKeys.
type FieldKey string

const (
	FieldChildName  FieldKey = "childName"
	FieldDOB        FieldKey = "dob"
	FieldGender     FieldKey = "gender"
	FieldParentName FieldKey = "parentName"

	FieldQ1_1 FieldKey = "q1_1"
	FieldQ1_2 FieldKey = "q1_2"
	FieldQ1_3 FieldKey = "q1_3"
	FieldQ1_4 FieldKey = "q1_4"

	FieldQ2_1 FieldKey = "q2_1"
	FieldQ2_2 FieldKey = "q2_2"
	FieldQ2_3 FieldKey = "q2_3"

	FieldQ3_1 FieldKey = "q3_1"
	FieldQ3_2 FieldKey = "q3_2"
	FieldQ3_3 FieldKey = "q3_3"

	FieldQ4_1 FieldKey = "q4_1"
	FieldQ4_2 FieldKey = "q4_2"
	FieldQ4_3 FieldKey = "q4_3"

	FieldGeneralEmotionalState  FieldKey = "generalEmotionalState"
	FieldBehavioralFeatures     FieldKey = "behavioralFeatures"
	FieldStrengthsWeaknesses    FieldKey = "strengthsWeaknesses"
	FieldDevelopmentConcerns    FieldKey = "developmentConcerns"
	FieldSpecialistConsultation FieldKey = "specialistConsultation"
)

// Gender values accepted by the gender radio group.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// ChildFormData is the questionnaire answer record. Every field is required.
type ChildFormData struct {
	ChildName  string `json:"childName" validate:"notblank"`
	DOB        string `json:"dob" validate:"notblank"`
	Gender     string `json:"gender" validate:"notblank"`
	ParentName string `json:"parentName" validate:"notblank"`

	Q1_1 string `json:"q1_1" validate:"notblank"`
	Q1_2 string `json:"q1_2" validate:"notblank"`
	Q1_3 string `json:"q1_3" validate:"notblank"`
	Q1_4 string `json:"q1_4" validate:"notblank"`

	Q2_1 string `json:"q2_1" validate:"notblank"`
	Q2_2 string `json:"q2_2" validate:"notblank"`
	Q2_3 string `json:"q2_3" validate:"notblank"`

	Q3_1 string `json:"q3_1" validate:"notblank"`
	Q3_2 string `json:"q3_2" validate:"notblank"`
	Q3_3 string `json:"q3_3" validate:"notblank"`

	Q4_1 string `json:"q4_1" validate:"notblank"`
	Q4_2 string `json:"q4_2" validate:"notblank"`
	Q4_3 string `json:"q4_3" validate:"notblank"`

	GeneralEmotionalState  string `json:"generalEmotionalState" validate:"notblank"`
	BehavioralFeatures     string `json:"behavioralFeatures" validate:"notblank"`
	StrengthsWeaknesses    string `json:"strengthsWeaknesses" validate:"notblank"`
	DevelopmentConcerns    string `json:"developmentConcerns" validate:"notblank"`
	SpecialistConsultation string `json:"specialistConsultation" validate:"notblank"`
}

// field returns a pointer to the answer for key, or nil for keys outside the record.
func (f *ChildFormData) field(key FieldKey) *string {
	switch key {
	case FieldChildName:
		return &f.ChildName
	case FieldDOB:
		return &f.DOB
	case FieldGender:
		return &f.Gender
	case FieldParentName:
		return &f.ParentName
	case FieldQ1_1:
		return &f.Q1_1
	case FieldQ1_2:
		return &f.Q1_2
	case FieldQ1_3:
		return &f.Q1_3
	case FieldQ1_4:
		return &f.Q1_4
	case FieldQ2_1:
		return &f.Q2_1
	case FieldQ2_2:
		return &f.Q2_2
	case FieldQ2_3:
		return &f.Q2_3
	case FieldQ3_1:
		return &f.Q3_1
	case FieldQ3_2:
		return &f.Q3_2
	case FieldQ3_3:
		return &f.Q3_3
	case FieldQ4_1:
		return &f.Q4_1
	case FieldQ4_2:
		return &f.Q4_2
	case FieldQ4_3:
		return &f.Q4_3
	case FieldGeneralEmotionalState:
		return &f.GeneralEmotionalState
	case FieldBehavioralFeatures:
		return &f.BehavioralFeatures
	case FieldStrengthsWeaknesses:
		return &f.StrengthsWeaknesses
	case FieldDevelopmentConcerns:
		return &f.DevelopmentConcerns
	case FieldSpecialistConsultation:
		return &f.SpecialistConsultation
	default:
		return nil
	}
}

// Get returns the answer for key. ok is false for unknown keys.
func (f *ChildFormData) Get(key FieldKey) (value string, ok bool) {
	ptr := f.field(key)
	if ptr == nil {
		return "", false
	}
	return *ptr, true
}

// Set stores value under key. It reports false, leaving the record untouched, for unknown keys.
func (f *ChildFormData) Set(key FieldKey, value string) bool {
	ptr := f.field(key)
	if ptr == nil {
		return false
	}
	*ptr = value
	return true
}

// FieldKind selects the input widget for a field.
type FieldKind string

const (
	FieldKindText     FieldKind = "text"
	FieldKindDate     FieldKind = "date"
	FieldKindRadio    FieldKind = "radio"
	FieldKindTextarea FieldKind = "textarea"
)

// FieldOption is one radio choice.
type FieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldSpec describes one questionnaire field for rendering.
type FieldSpec struct {
	Key     FieldKey      `json:"key"`
	Section string        `json:"section"`
	Label   string        `json:"label"`
	Kind    FieldKind     `json:"kind"`
	Options []FieldOption `json:"options,omitempty"`
}

// Section titles.
const (
	SectionGeneral        = "Общая информация о ребенке"
	SectionEmotional      = "Раздел 1. Эмоциональная сфера"
	SectionSocial         = "Раздел 2. Социальное взаимодействие"
	SectionSelfRegulation = "Раздел 3. Саморегуляция и поведение"
	SectionSelfEsteem     = "Раздел 4. Самооценка и уверенность в себе"
	SectionOverall        = "Раздел 5. Общие вопросы"
)

var (
	genderOptions = []FieldOption{
		{Label: "Мужской", Value: GenderMale},
		{Label: "Женский", Value: GenderFemale},
	}
	frequencyOptions = []FieldOption{
		{Label: "Очень редко", Value: "very_rarely"},
		{Label: "Редко", Value: "rarely"},
		{Label: "Иногда", Value: "sometimes"},
		{Label: "Часто", Value: "often"},
		{Label: "Всегда", Value: "always"},
	}
	likertOptions = []FieldOption{
		{Label: "Отлично", Value: "excellent"},
		{Label: "Хорошо", Value: "good"},
		{Label: "Удовлетворительно", Value: "satisfactory"},
		{Label: "Неудовлетворительно", Value: "poor"},
		{Label: "Очень плохо", Value: "very_poor"},
	}
)

var questionnaire = []FieldSpec{
	{Key: FieldChildName, Section: SectionGeneral, Label: "Имя ребенка", Kind: FieldKindText},
	{Key: FieldDOB, Section: SectionGeneral, Label: "Дата рождения ребенка", Kind: FieldKindDate},
	{Key: FieldGender, Section: SectionGeneral, Label: "Пол ребенка", Kind: FieldKindRadio, Options: genderOptions},
	{Key: FieldParentName, Section: SectionGeneral, Label: "Имя родителя, заполняющего анкету", Kind: FieldKindText},

	{Key: FieldQ1_1, Section: SectionEmotional, Label: "Ребенок часто выражает радость и удовольствие:", Kind: FieldKindRadio, Options: frequencyOptions},
	{Key: FieldQ1_2, Section: SectionEmotional, Label: "Ребенок часто выглядит грустным и удрученным:", Kind: FieldKindRadio, Options: frequencyOptions},
	{Key: FieldQ1_3, Section: SectionEmotional, Label: "Ребенок часто грустит или плачет без видимой причины:", Kind: FieldKindRadio, Options: frequencyOptions},
	{Key: FieldQ1_4, Section: SectionEmotional, Label: "Ребенок легко возбудим, его настроение часто меняется:", Kind: FieldKindRadio, Options: frequencyOptions},

	{Key: FieldQ2_1, Section: SectionSocial, Label: "Ребенок легко заводит друзей:", Kind: FieldKindRadio, Options: frequencyOptions},
	{Key: FieldQ2_2, Section: SectionSocial, Label: "Ребенок предпочитает играть один и не с другими детьми:", Kind: FieldKindRadio, Options: frequencyOptions},
	{Key: FieldQ2_3, Section: SectionSocial, Label: "Ребенок проявляет эмпатию к другим (сочувствует, старается помочь):", Kind: FieldKindRadio, Options: frequencyOptions},

	{Key: FieldQ3_1, Section: SectionSelfRegulation, Label: "Ребенок умеет следовать правилам и инструкциям:", Kind: FieldKindRadio, Options: frequencyOptions},
	{Key: FieldQ3_2, Section: SectionSelfRegulation, Label: "Ребенку трудно контролировать свои импульсы (например, перебивает, не может дождаться своей очереди):", Kind: FieldKindRadio, Options: frequencyOptions},
	{Key: FieldQ3_3, Section: SectionSelfRegulation, Label: "Ребенок часто проявляет упрямство, отказывается сотрудничать:", Kind: FieldKindRadio, Options: frequencyOptions},

	{Key: FieldQ4_1, Section: SectionSelfEsteem, Label: "Ребенок уверен в своих силах и способностях:", Kind: FieldKindRadio, Options: frequencyOptions},
	{Key: FieldQ4_2, Section: SectionSelfEsteem, Label: "Ребенок часто сомневается в себе, нуждается в постоянном одобрении:", Kind: FieldKindRadio, Options: frequencyOptions},
	{Key: FieldQ4_3, Section: SectionSelfEsteem, Label: "Ребенок легко расстраивается из-за неудач, боится пробовать новое:", Kind: FieldKindRadio, Options: frequencyOptions},

	{Key: FieldGeneralEmotionalState, Section: SectionOverall, Label: "Как Вы оцениваете общее эмоциональное состояние вашего ребенка?", Kind: FieldKindRadio, Options: likertOptions},
	{Key: FieldBehavioralFeatures, Section: SectionOverall, Label: "Есть ли у Вашего ребенка какие-либо особенности развития или поведения, о которых Вы бы хотели сообщить дополнительно?", Kind: FieldKindTextarea},
	{Key: FieldStrengthsWeaknesses, Section: SectionOverall, Label: "Какие, на Ваш взгляд, сильные стороны и таланты есть у Вашего ребенка?", Kind: FieldKindTextarea},
	{Key: FieldDevelopmentConcerns, Section: SectionOverall, Label: "Какие, на Ваш взгляд, области требуют особого внимания и развития у Вашего ребенка?", Kind: FieldKindTextarea},
	{Key: FieldSpecialistConsultation, Section: SectionOverall, Label: "Обращались ли Вы ранее к специалистам (психологу, неврологу, логопеду) по поводу развития или поведения Вашего ребенка? Если да, то к кому и с каким результатом?", Kind: FieldKindTextarea},
}

// Questionnaire returns the field catalogue in display order. Callers get a copy.
func Questionnaire() []FieldSpec {
	out := make([]FieldSpec, len(questionnaire))
	copy(out, questionnaire)
	return out
}

// FieldKeys returns every required key in catalogue order.
func FieldKeys() []FieldKey {
	keys := make([]FieldKey, len(questionnaire))
	for i, spec := range questionnaire {
		keys[i] = spec.Key
	}
	return keys
}

// ParseFieldKey validates a raw key against the catalogue.
func ParseFieldKey(raw string) (FieldKey, bool) {
	for _, spec := range questionnaire {
		if string(spec.Key) == raw {
			return spec.Key, true
		}
	}
	return "", false
}
