package models

import "time"

// Plan is a named syllabus ("edital") the user studies for.
type Plan struct {
	ID                string       `db:"id" json:"id"`
	Name              string       `db:"name" json:"name"`
	Observations      string       `db:"observations" json:"observations"`
	Cargo             string       `db:"cargo" json:"cargo"`
	Edital            string       `db:"edital" json:"edital"`
	SourceFile        string       `db:"source_file" json:"sourceFile,omitempty"`
	Subjects          Subjects     `db:"subjects" json:"subjects"`
	BancaTopicWeights TopicWeights `db:"banca_topic_weights" json:"bancaTopicWeights,omitempty"`
	CreatedAt         time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updatedAt"`
}

// FindSubject returns the subject with the given id, falling back to its name.
func (p *Plan) FindSubject(id, name string) *Subject {
	if p == nil {
		return nil
	}
	if id != "" {
		for i := range p.Subjects {
			if p.Subjects[i].ID == id {
				return &p.Subjects[i]
			}
		}
	}
	for i := range p.Subjects {
		if p.Subjects[i].Subject == name {
			return &p.Subjects[i]
		}
	}
	return nil
}

// AppSetting is a persisted key/value preference.
type AppSetting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SettingSelectedPlan stores the id of the plan shown by default.
const SettingSelectedPlan = "selected_plan_id"
