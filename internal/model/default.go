package model

// Default returns the fallback record used when the slot is empty or its
// contents cannot be decoded. Each call returns a fresh copy.
func Default() UserRecord {
	return UserRecord{
		Name:      "Neil",
		AvatarRef: "/lovable-uploads/bc631808-f0d1-4dc0-91b9-2243fb81468d.png",
		Tasks: []Task{
			{ID: "1", Text: "Complete Java Assignment", Completed: false, Date: "2025-04-11"},
			{ID: "2", Text: "Study for Math Exam", Completed: false, Date: "2025-04-12"},
			{ID: "3", Text: "Work on Front-End Development", Completed: false, Date: "2025-04-13"},
		},
		Events: []Event{
			{ID: "1", Date: "2025-04-23", Title: "BCA Exams"},
			{ID: "2", Date: "2025-04-25", Title: "BCA Coursework"},
		},
		Subjects: []Subject{
			{ID: "1", Name: "Java", Progress: 75, Color: "#4C9AFF"},
			{ID: "2", Name: "Web Development", Progress: 60, Color: "#F87171"},
			{ID: "3", Name: "Database", Progress: 45, Color: "#10B981"},
			{ID: "4", Name: "Mathematics", Progress: 90, Color: "#8B5CF6"},
		},
	}
}
