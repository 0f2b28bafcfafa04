package model

func DefaultActivityTypes() []ActivityType {
	return []ActivityType{
		{ID: "work", Name: "Work", Color: "#8b9690", CountType: CountTime},
		{ID: "exercise", Name: "Exercise", Color: "#7a8471", CountType: CountTime},
		{ID: "workout", Name: "Workout", Color: "#9a8c7a", CountType: CountWorkout},
		{ID: "study", Name: "Study", Color: "#6b7b8a", CountType: CountTime},
		{ID: "rest", Name: "Rest", Color: "#8a7a7a", CountType: CountTime},
		{ID: "meal", Name: "Meal", Color: "#8b7e71", CountType: CountTime},
		{ID: "social", Name: "Social", Color: "#7a8491", CountType: CountTime},
		{ID: "entertainment", Name: "Entertainment", Color: "#8a8a73", CountType: CountTime},
		{ID: "commute", Name: "Commute", Color: "#8a9299", CountType: CountTime},
		{ID: "meeting", Name: "Meeting", Color: "#967a7a", CountType: CountTime},
	}
}

// EnsureWorkoutActivity appends the workout type when an older snapshot predates it.
func EnsureWorkoutActivity(types []ActivityType) ([]ActivityType, bool) {
	for _, t := range types {
		if t.ID == "workout" {
			return types, false
		}
	}
	return append(types, ActivityType{ID: "workout", Name: "Workout", Color: "#9a8c7a", CountType: CountWorkout}), true
}

func DefaultKanbanColumns() []KanbanColumn {
	return []KanbanColumn{
		{ID: "unorganized", Title: "Unorganized", Icon: "📋"},
		{ID: "in-progress", Title: "In progress", Icon: "⚡"},
		{ID: "waiting", Title: "Waiting", Icon: "⏳"},
		{ID: "project", Title: "Project", Icon: "📦"},
		{ID: "completed", Title: "Completed", Icon: "✅"},
	}
}

func KnownModules() []ModuleInfo {
	return []ModuleInfo{
		{ID: "overview", Name: "Overview", Subtitle: "Dashboard"},
		{ID: "todos", Name: "Todos", Subtitle: "Task board"},
		{ID: "calendar", Name: "Calendar", Subtitle: "Schedule and reminders"},
		{ID: "finance", Name: "Finance", Subtitle: "Income and expenses"},
		{ID: "projects", Name: "Projects", Subtitle: "Containers and reports"},
		{ID: "life-simulator", Name: "Life simulator", Subtitle: "Gamified tasks"},
		{ID: "timebox", Name: "Timebox", Subtitle: "Focus blocks"},
		{ID: "settings", Name: "Settings", Subtitle: "Preferences"},
	}
}

func DefaultModuleOrder() []string {
	mods := KnownModules()
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.ID)
	}
	return out
}

func ModuleByID(id string) (ModuleInfo, bool) {
	for _, m := range KnownModules() {
		if m.ID == id {
			return m, true
		}
	}
	return ModuleInfo{}, false
}
