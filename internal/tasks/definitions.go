package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	// Register general tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Register plan tasks
	RegisterHandler(SweepOverduePlansTask.TaskID(), SweepOverduePlansTask.HandleExecution)

	// Register notification tasks
	RegisterHandler(SendPaymentReminderTask.TaskID(), SendPaymentReminderTask.HandleExecution)
}
