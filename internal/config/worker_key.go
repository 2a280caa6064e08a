package config

type WorkerKeyStruct struct {
	PersistQuizSessionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistQuizSessionsQueue: "persist_quiz_sessions_queue",
}
