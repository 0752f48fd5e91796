package tasks

// TaskSchedulerInterface is the scheduler surface used by main and the API.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueIngestAll() (int, error)
}
