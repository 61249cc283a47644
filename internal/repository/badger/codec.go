package badger

import (
	"time"

	"alcyxob/fitness-sync/internal/domain"
)

// Persistence boundary encoding.
//
// The storage records below encode optional numeric metrics as plain
// numbers where any non-positive value means "unset". The in-memory
// domain model uses real pointers; conversion happens here and only
// here, in both directions:
//
//	encode: nil pointer        -> 0
//	decode: value <= 0         -> nil pointer
//	        value >  0         -> pointer to value
//
// Caveat, preserved deliberately: a targetWeight of exactly 0 (a
// legitimate value for bodyweight movements) is indistinguishable from
// "unset" in storage and decodes to nil. Callers that care treat a nil
// target weight on a bodyweight exercise as zero.

func encOptInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func decOptInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func encOptFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func decOptFloat(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

type setGroupRecord struct {
	ID             string  `json:"id"`
	Order          int     `json:"order"`
	Sets           int     `json:"sets"`
	TargetReps     int     `json:"targetReps"`
	TargetWeight   float64 `json:"targetWeight"`
	TargetDuration int     `json:"targetDuration"`
	TargetDistance float64 `json:"targetDistance"`
	RestSeconds    int     `json:"restSeconds"`
}

func encodeSetGroup(g domain.SetGroup) setGroupRecord {
	return setGroupRecord{
		ID:             g.ID,
		Order:          g.Order,
		Sets:           g.Sets,
		TargetReps:     encOptInt(g.TargetReps),
		TargetWeight:   encOptFloat(g.TargetWeight),
		TargetDuration: encOptInt(g.TargetDuration),
		TargetDistance: encOptFloat(g.TargetDistance),
		RestSeconds:    encOptInt(g.RestSeconds),
	}
}

func decodeSetGroup(r setGroupRecord) domain.SetGroup {
	return domain.SetGroup{
		ID:             r.ID,
		Order:          r.Order,
		Sets:           r.Sets,
		TargetReps:     decOptInt(r.TargetReps),
		TargetWeight:   decOptFloat(r.TargetWeight),
		TargetDuration: decOptInt(r.TargetDuration),
		TargetDistance: decOptFloat(r.TargetDistance),
		RestSeconds:    decOptInt(r.RestSeconds),
	}
}

type exerciseRecord struct {
	ID              string           `json:"id"`
	TemplateID      string           `json:"templateId,omitempty"`
	Name            string           `json:"name"`
	ExerciseType    string           `json:"exerciseType"`
	Metrics         []string         `json:"metrics,omitempty"`
	SetGroups       []setGroupRecord `json:"setGroups"`
	SupersetGroupID string           `json:"supersetGroupId,omitempty"`
	Order           int              `json:"order"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func encodeExercise(e domain.ExerciseInstance) exerciseRecord {
	rec := exerciseRecord{
		ID:              e.ID,
		TemplateID:      e.TemplateID,
		Name:            e.Name,
		ExerciseType:    string(e.ExerciseType),
		SupersetGroupID: e.SupersetGroupID,
		Order:           e.Order,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	for _, m := range e.Metrics {
		rec.Metrics = append(rec.Metrics, string(m))
	}
	for _, g := range e.SetGroups {
		rec.SetGroups = append(rec.SetGroups, encodeSetGroup(g))
	}
	return rec
}

func decodeExercise(r exerciseRecord) domain.ExerciseInstance {
	e := domain.ExerciseInstance{
		ID:              r.ID,
		TemplateID:      r.TemplateID,
		Name:            r.Name,
		ExerciseType:    domain.ExerciseType(r.ExerciseType),
		SupersetGroupID: r.SupersetGroupID,
		Order:           r.Order,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	for _, m := range r.Metrics {
		e.Metrics = append(e.Metrics, domain.MetricType(m))
	}
	for _, g := range r.SetGroups {
		e.SetGroups = append(e.SetGroups, decodeSetGroup(g))
	}
	return e
}

type moduleRecord struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	Exercises  []exerciseRecord `json:"exercises"`
	Notes      string           `json:"notes,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	SyncStatus string           `json:"syncStatus"`
}

func encodeModule(m *domain.Module) moduleRecord {
	rec := moduleRecord{
		ID:         m.ID,
		Name:       m.Name,
		Type:       string(m.Type),
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		SyncStatus: string(m.SyncStatus),
	}
	for _, e := range m.Exercises {
		rec.Exercises = append(rec.Exercises, encodeExercise(e))
	}
	return rec
}

func decodeModule(r moduleRecord) domain.Module {
	m := domain.Module{
		ID:         r.ID,
		Name:       r.Name,
		Type:       domain.ModuleType(r.Type),
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		SyncStatus: domain.SyncStatus(r.SyncStatus),
	}
	for _, e := range r.Exercises {
		m.Exercises = append(m.Exercises, decodeExercise(e))
	}
	return m
}

type workoutRecord struct {
	ID                  string                   `json:"id"`
	Name                string                   `json:"name"`
	Modules             []domain.ModuleReference `json:"modules"`
	StandaloneExercises []exerciseRecord         `json:"standaloneExercises,omitempty"`
	Notes               string                   `json:"notes,omitempty"`
	Archived            bool                     `json:"archived"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
	SyncStatus          string                   `json:"syncStatus"`
}

func encodeWorkout(w *domain.Workout) workoutRecord {
	rec := workoutRecord{
		ID:         w.ID,
		Name:       w.Name,
		Modules:    w.Modules,
		Notes:      w.Notes,
		Archived:   w.Archived,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
		SyncStatus: string(w.SyncStatus),
	}
	for _, e := range w.StandaloneExercises {
		rec.StandaloneExercises = append(rec.StandaloneExercises, encodeExercise(e))
	}
	return rec
}

func decodeWorkout(r workoutRecord) domain.Workout {
	w := domain.Workout{
		ID:         r.ID,
		Name:       r.Name,
		Modules:    r.Modules,
		Notes:      r.Notes,
		Archived:   r.Archived,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		SyncStatus: domain.SyncStatus(r.SyncStatus),
	}
	for _, e := range r.StandaloneExercises {
		w.StandaloneExercises = append(w.StandaloneExercises, decodeExercise(e))
	}
	return w
}

type setDataRecord struct {
	SetNumber   int     `json:"setNumber"`
	Weight      float64 `json:"weight"`
	Reps        int     `json:"reps"`
	Completed   bool    `json:"completed"`
	Duration    int     `json:"duration"`
	Distance    float64 `json:"distance"`
	RPE         float64 `json:"rpe"`
	RestSeconds int     `json:"restSeconds"`
	HeartRate   int     `json:"heartRate"`
	Incline     float64 `json:"incline"`
	Speed       float64 `json:"speed"`
	Calories    int     `json:"calories"`
	IsWarmup    bool    `json:"isWarmup"`
	Notes       string  `json:"notes,omitempty"`
}

func encodeSetData(s domain.SetData) setDataRecord {
	return setDataRecord{
		SetNumber:   s.SetNumber,
		Weight:      encOptFloat(s.Weight),
		Reps:        encOptInt(s.Reps),
		Completed:   s.Completed,
		Duration:    encOptInt(s.Duration),
		Distance:    encOptFloat(s.Distance),
		RPE:         encOptFloat(s.RPE),
		RestSeconds: encOptInt(s.RestSeconds),
		HeartRate:   encOptInt(s.HeartRate),
		Incline:     encOptFloat(s.Incline),
		Speed:       encOptFloat(s.Speed),
		Calories:    encOptInt(s.Calories),
		IsWarmup:    s.IsWarmup,
		Notes:       s.Notes,
	}
}

func decodeSetData(r setDataRecord) domain.SetData {
	return domain.SetData{
		SetNumber:   r.SetNumber,
		Weight:      decOptFloat(r.Weight),
		Reps:        decOptInt(r.Reps),
		Completed:   r.Completed,
		Duration:    decOptInt(r.Duration),
		Distance:    decOptFloat(r.Distance),
		RPE:         decOptFloat(r.RPE),
		RestSeconds: decOptInt(r.RestSeconds),
		HeartRate:   decOptInt(r.HeartRate),
		Incline:     decOptFloat(r.Incline),
		Speed:       decOptFloat(r.Speed),
		Calories:    decOptInt(r.Calories),
		IsWarmup:    r.IsWarmup,
		Notes:       r.Notes,
	}
}

type sessionExerciseRecord struct {
	ID                        string                        `json:"id"`
	Name                      string                        `json:"name"`
	ExerciseType              string                        `json:"exerciseType"`
	Order                     int                           `json:"order"`
	SourceExerciseInstanceID  string                        `json:"sourceExerciseInstanceId,omitempty"`
	SetGroups                 []completedSetGroupRecord     `json:"setGroups"`
	ProgressionRecommendation string                        `json:"progressionRecommendation,omitempty"`
	ProgressionSuggestion     *domain.ProgressionSuggestion `json:"progressionSuggestion,omitempty"`
}

type completedSetGroupRecord struct {
	ID    string          `json:"id"`
	Order int             `json:"order"`
	Sets  []setDataRecord `json:"sets"`
}

type completedModuleRecord struct {
	ID        string                  `json:"id"`
	ModuleID  string                  `json:"moduleId,omitempty"`
	Name      string                  `json:"name"`
	Order     int                     `json:"order"`
	Exercises []sessionExerciseRecord `json:"exercises"`
}

type sessionRecord struct {
	ID         string                  `json:"id"`
	WorkoutID  string                  `json:"workoutId"`
	Date       time.Time               `json:"date"`
	Modules    []completedModuleRecord `json:"modules"`
	Notes      string                  `json:"notes,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt"`
	SyncStatus string                  `json:"syncStatus"`
}

func encodeSession(s *domain.Session) sessionRecord {
	rec := sessionRecord{
		ID:         s.ID,
		WorkoutID:  s.WorkoutID,
		Date:       s.Date,
		Notes:      s.Notes,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		SyncStatus: string(s.SyncStatus),
	}
	for _, m := range s.Modules {
		mr := completedModuleRecord{ID: m.ID, ModuleID: m.ModuleID, Name: m.Name, Order: m.Order}
		for _, e := range m.Exercises {
			er := sessionExerciseRecord{
				ID:                       e.ID,
				Name:                     e.Name,
				ExerciseType:             string(e.ExerciseType),
				Order:                    e.Order,
				SourceExerciseInstanceID: e.SourceExerciseInstanceID,
				ProgressionSuggestion:    e.ProgressionSuggestion,
			}
			if e.ProgressionRecommendation != nil {
				er.ProgressionRecommendation = string(*e.ProgressionRecommendation)
			}
			for _, g := range e.SetGroups {
				gr := completedSetGroupRecord{ID: g.ID, Order: g.Order}
				for _, set := range g.Sets {
					gr.Sets = append(gr.Sets, encodeSetData(set))
				}
				er.SetGroups = append(er.SetGroups, gr)
			}
			mr.Exercises = append(mr.Exercises, er)
		}
		rec.Modules = append(rec.Modules, mr)
	}
	return rec
}

func decodeSession(r sessionRecord) domain.Session {
	s := domain.Session{
		ID:         r.ID,
		WorkoutID:  r.WorkoutID,
		Date:       r.Date,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		SyncStatus: domain.SyncStatus(r.SyncStatus),
	}
	for _, mr := range r.Modules {
		m := domain.CompletedModule{ID: mr.ID, ModuleID: mr.ModuleID, Name: mr.Name, Order: mr.Order}
		for _, er := range mr.Exercises {
			e := domain.SessionExercise{
				ID:                       er.ID,
				Name:                     er.Name,
				ExerciseType:             domain.ExerciseType(er.ExerciseType),
				Order:                    er.Order,
				SourceExerciseInstanceID: er.SourceExerciseInstanceID,
				ProgressionSuggestion:    er.ProgressionSuggestion,
			}
			if er.ProgressionRecommendation != "" {
				outcome := domain.ProgressionOutcome(er.ProgressionRecommendation)
				e.ProgressionRecommendation = &outcome
			}
			for _, gr := range er.SetGroups {
				g := domain.CompletedSetGroup{ID: gr.ID, Order: gr.Order}
				for _, sr := range gr.Sets {
					g.Sets = append(g.Sets, decodeSetData(sr))
				}
				e.SetGroups = append(e.SetGroups, g)
			}
			m.Exercises = append(m.Exercises, e)
		}
		s.Modules = append(s.Modules, m)
	}
	return s
}
