package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/psychodraw/internal/models"
	appErrors "github.com/noah-isme/psychodraw/pkg/errors"
)

const (
	defaultChildName = "ребенка"
	notSpecified     = "Не указано"
	notSpecifiedAge  = "Не указан"
	dobLayout        = "2006-01-02"
)

var (
	errDownloadNotImplemented = appErrors.Clone(appErrors.ErrNotImplemented, "PDF download is not implemented yet.")
	errShareNotImplemented    = appErrors.Clone(appErrors.ErrNotImplemented, "Sharing is not implemented yet.")
)

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReportService renders the final report from a frozen questionnaire.
type ReportService struct {
	cache  reportCache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService builds the report renderer. cache may be nil.
func NewReportService(cache reportCache, ttl time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// Build renders the report for form. Rendered documents are cached per answers and day, since
// the derived age is the only time-dependent part.
func (s *ReportService) Build(ctx context.Context, form models.ChildFormData) (*models.Report, error) {
	now := s.now()
	key, err := reportCacheKey(form, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to key report")
	}

	if s.cache != nil {
		var cached models.Report
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("report cache lookup failed", zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	report := renderReport(form, now)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.ttl); err != nil {
			s.logger.Warn("report cache store failed", zap.Error(err))
		}
	}
	return report, nil
}

// Download is not available yet and always reports so.
func (s *ReportService) Download(ctx context.Context, form models.ChildFormData) error {
	return errDownloadNotImplemented
}

// Share is not available yet and always reports so.
func (s *ReportService) Share(ctx context.Context, form models.ChildFormData) error {
	return errShareNotImplemented
}

// AgeYears returns completed years between dob and now. ok is false when dob is empty,
// malformed or in the future.
func AgeYears(dob string, now time.Time) (years int, ok bool) {
	if dob == "" {
		return 0, false
	}
	birth, err := time.Parse(dobLayout, dob)
	if err != nil {
		return 0, false
	}
	years = now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0, false
	}
	return years, true
}

// YearsWord picks the Russian noun form used after an age. Only an age of exactly one takes
// "год"; 2 to 4 take "года".
func YearsWord(years int) string {
	switch {
	case years == 1:
		return "год"
	case years > 1 && years < 5:
		return "года"
	default:
		return "лет"
	}
}

func genderLabel(gender string) string {
	switch gender {
	case models.GenderMale:
		return "Мужской"
	case models.GenderFemale:
		return "Женский"
	default:
		return notSpecifiedAge
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func renderReport(form models.ChildFormData, now time.Time) *models.Report {
	age := notSpecifiedAge
	var agePtr *int
	if years, ok := AgeYears(form.DOB, now); ok {
		age = fmt.Sprintf("%d %s", years, YearsWord(years))
		agePtr = &years
	}

	return &models.Report{
		Title:    fmt.Sprintf("Психологический отчёт о ребёнке %s (%s)", orDefault(form.ChildName, defaultChildName), age),
		AgeYears: agePtr,
		Summary: models.ReportSummary{
			ChildName:  orDefault(form.ChildName, notSpecified),
			Age:        age,
			Gender:     genderLabel(form.Gender),
			ParentName: orDefault(form.ParentName, notSpecified),
			Intro: fmt.Sprintf("Представленный отчет содержит анализ данных, полученных в ходе заполнения анкеты родителем (%s) и интерпретации рисуночных тестов.",
				orDefault(form.ParentName, notSpecified)),
		},
		Sections:        drawingSections(),
		Scales:          sampleScales(),
		VisualProfile:   sampleVisualProfile(),
		Recommendations: parentRecommendations(),
		Closing:         "Очень внимательно следите за эмоциональным состоянием и поведением ребёнка. Личные консультации для полной поддержки ребенка в развитии.",
		GeneratedAt:     now.UTC(),
	}
}

func drawingSections() []models.ReportSection {
	return []models.ReportSection{
		{
			Title: "Общие выводы",
			Paragraphs: []models.ReportParagraph{
				{Label: `Анализ рисунка "Дом"`, Text: "Часто свидетельствует о потребности в стабильности, защищенности и семейном благополучии."},
				{Label: `Описание черт(дерево) "Я-концепция"`, Text: "Воображение и наблюдательность."},
				{Label: "Самооценка (автопортрет)", Text: "Склонность к самоконтролю, стремление к одобрению со стороны взрослых."},
			},
		},
		{
			Title:    "Раздел 1. Рисуночные тесты",
			Subtitle: "РИС. 1. Дом, дерево, человек: основные наблюдения",
			Observations: []models.Observation{
				{Element: "Дом", Features: "Неполный, с открытыми дверями, без окон.", Conclusion: "Потребность в безопасности, связи с семьей."},
				{Element: "Дерево", Features: "С тонкими, гнущимися ветвями.", Conclusion: "Гибкость, рост, возможная незрелость."},
				{Element: "Человек", Features: "Маленький, руки прижаты, без эмоций.", Conclusion: "Сдержанность, неуверенность, сложность."},
			},
			Conclusion: "Ребёнок чувствует себя в семье защищённо, но может быть склонен к подавлению эмоций, существует неуверенность в социальной среде.",
		},
		{
			Title: "РИС. 2. Животное: детали и фантазия",
			Paragraphs: []models.ReportParagraph{
				{Label: "Выбор животного", Text: "Фантастическое или символическое существо (например, легко прыгающее)."},
				{Label: "Акценты в рисунке", Text: "Большие глаза, уши – важность наблюдения, осторожность."},
				{Label: "Поза и выражение", Text: "Мирное выражение, открытая поза – доброжелательность."},
			},
			Conclusion: "У ребёнка хорошо развито воображение, он склонен к рефлексии и наблюдательности. Может выражать активные эмоции, предпочитая эмпатию.",
		},
		{
			Title: "РИС. 3. Автопортрет: особенности самовосприятия",
			Paragraphs: []models.ReportParagraph{
				{Label: "Размер фигуры", Text: "Маленький – возможно заниженная самооценка."},
				{Label: "Выражение лица", Text: "Нейтральное или отсутствуют – сдержанность."},
				{Label: "Дополнительные детали", Text: "Нет фона или окружения образом – неуверенность и замкнут."},
			},
			Conclusion: "Ребёнок уделяет внимание на внешнюю оценку, нуждается в поддержке, особенно эмоциональной и словесной.",
		},
	}
}

func sampleScales() []models.ScaleItem {
	return []models.ScaleItem{
		{Label: "Эмоциональная зрелость", Score: 1, MaxScore: 6},
		{Label: "Социальная адаптация", Score: 1, MaxScore: 6},
		{Label: "Самооценка", Score: 1, MaxScore: 2},
		{Label: "Креативность", Score: 1, MaxScore: 2},
		{Label: "Самозащита", Score: 1, MaxScore: 1},
	}
}

func sampleVisualProfile() []models.VisualProfileItem {
	return []models.VisualProfileItem{
		{Label: "Эмоц. устойчивость", Value: 7, Total: 10},
		{Label: "Соц. адаптация", Value: 5, Total: 10},
		{Label: "Самокритичность", Value: 8, Total: 10},
		{Label: "Критическая важность", Value: 3, Total: 10},
		{Label: "Самозащита", Value: 6, Total: 10},
	}
}

func parentRecommendations() []string {
	return []string{
		"Чаще хвалите ребёнка за конкретные действия, а не только за результат.",
		`Помогайте называть чувства: "Ты расстроен(а), потому что...".`,
		"Поддерживайте инициативу, даже если ребёнок ошибается.",
		"Создавайте спокойную и принимающую атмосферу дома.",
		"Поощряйте фантазию с помощью рисунка, игры по ролям.",
	}
}

func reportCacheKey(form models.ChildFormData, now time.Time) (string, error) {
	payload, err := json.Marshal(form)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return "report:" + now.Format(dobLayout) + ":" + hex.EncodeToString(sum[:]), nil
}
