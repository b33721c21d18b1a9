package quiz

// Difficulty describes one supported difficulty level. Keys follow the
// product's French UI (facile, moyen, difficile).
type Difficulty struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	complexity  string
}

// QuestionType describes one supported question format.
type QuestionType struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	format      string
}

// Options is the static option list served to the frontend.
type Options struct {
	Difficulties  []Difficulty   `json:"difficulties"`
	QuestionTypes []QuestionType `json:"question_types"`
}

var difficulties = []Difficulty{
	{
		Key:         "facile",
		Name:        "Facile",
		Description: "Questions simples et directes, basées sur des faits explicites du document.",
		complexity:  "basic recall and straightforward comprehension",
	},
	{
		Key:         "moyen",
		Name:        "Moyen",
		Description: "Questions nécessitant une compréhension approfondie et des liens entre concepts.",
		complexity:  "moderate analysis and connection of concepts",
	},
	{
		Key:         "difficile",
		Name:        "Difficile",
		Description: "Questions complexes nécessitant analyse, synthèse et réflexion critique.",
		complexity:  "deep analysis, synthesis, and critical thinking",
	},
}

var questionTypes = []QuestionType{
	{
		Key:         "comprehension",
		Name:        "Compréhension",
		Description: "Questions testant la compréhension du contenu",
		format: `Create comprehension questions that test understanding of concepts and ideas.
Format: open-ended questions requiring explanation.`,
	},
	{
		Key:         "memorisation",
		Name:        "Mémorisation",
		Description: "Questions testant la mémorisation de faits",
		format: `Create memorization questions testing recall of specific facts, dates, definitions.
Format: direct questions with specific answers.`,
	},
	{
		Key:         "qcm",
		Name:        "QCM (Choix Multiple)",
		Description: "Questions à choix multiples avec 4 options",
		format: `Create multiple choice questions with exactly 4 options (A, B, C, D).
Only ONE option is correct. The "correct_answer" field holds only the letter.`,
	},
	{
		Key:         "vrai_faux",
		Name:        "Vrai/Faux",
		Description: "Questions vrai ou faux",
		format: `Create true/false statements based on the document content.
The "correct_answer" field is "Vrai" or "Faux"; omit "options".`,
	},
	{
		Key:         "reponse_courte",
		Name:        "Réponse Courte",
		Description: "Questions à réponse courte",
		format: `Create short answer questions requiring brief, specific answers
(one or two sentences).`,
	},
}

// AvailableOptions returns the difficulties and question types the
// generator understands.
func AvailableOptions() Options {
	return Options{Difficulties: difficulties, QuestionTypes: questionTypes}
}

func difficultyByKey(key string) (Difficulty, bool) {
	for _, d := range difficulties {
		if d.Key == key {
			return d, true
		}
	}
	return Difficulty{}, false
}

func questionTypeByKey(key string) (QuestionType, bool) {
	for _, qt := range questionTypes {
		if qt.Key == key {
			return qt, true
		}
	}
	return QuestionType{}, false
}
