package adminclient

// State is a step of the create-course workflow.
type State string

const (
	Idle           State = "idle"
	Uploading      State = "uploading"
	Uploaded       State = "uploaded"
	UploadFailed   State = "upload_failed"
	Creating       State = "creating"
	Created        State = "created"
	CreationFailed State = "creation_failed"
	CleaningUp     State = "cleaning_up"
	CleanupDone    State = "cleanup_done"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case UploadFailed, Created, CleanupDone:
		return true
	}
	return false
}

var transitions = map[State][]State{
	Idle:           {Uploading},
	Uploading:      {Uploaded, UploadFailed},
	Uploaded:       {Creating},
	Creating:       {Created, CreationFailed},
	CreationFailed: {CleaningUp},
	CleaningUp:     {CleanupDone},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Observer is called after every state change, in order.
type Observer func(from, to State)
