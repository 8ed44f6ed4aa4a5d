package marketplace

// StepState is how a lifecycle step is drawn.
type StepState int

const (
	StepUpcoming StepState = iota
	StepCurrent
	StepDone
	StepFailed
)

func (s StepState) String() string {
	switch s {
	case StepCurrent:
		return "current"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	}
	return "upcoming"
}

type Step struct {
	Label string
	State StepState
}

// Lifecycle renders a server-provided status as a row of steps. It never
// decides transitions; the API owns those.
type Lifecycle []Step

// Current returns the step being worked on, or the last finished one.
func (l Lifecycle) Current() (Step, bool) {
	for _, s := range l {
		if s.State == StepCurrent || s.State == StepFailed {
			return s, true
		}
	}
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].State == StepDone {
			return l[i], true
		}
	}
	return Step{}, false
}

// linear marks steps before at as done and at as current. An at equal to
// len(labels) marks everything done.
func linear(labels []string, at int) Lifecycle {
	l := make(Lifecycle, len(labels))
	for i, label := range labels {
		l[i] = Step{Label: label}
		switch {
		case i < at:
			l[i].State = StepDone
		case i == at:
			l[i].State = StepCurrent
		}
	}
	return l
}

func ProjectLifecycle(status ProjectStatus) Lifecycle {
	labels := []string{"Open", "Assigned", "Completed"}
	switch status {
	case ProjectOpen:
		return linear(labels, 0)
	case ProjectAssigned:
		return linear(labels, 1)
	case ProjectCompleted:
		return linear(labels, len(labels))
	}
	return linear(labels, -1)
}

// TaskLifecycle shows a requested revision as work in progress again.
func TaskLifecycle(status TaskStatus) Lifecycle {
	labels := []string{"In progress", "Submitted", "Completed"}
	switch status {
	case TaskInProgress:
		return linear(labels, 0)
	case TaskRevisionRequested:
		l := linear(labels, 0)
		l[0].Label = "Revision requested"
		return l
	case TaskSubmitted:
		return linear(labels, 1)
	case TaskCompleted:
		return linear(labels, len(labels))
	}
	return linear(labels, -1)
}

func RequestLifecycle(status RequestStatus) Lifecycle {
	return decision("Pending", "Accepted", "Rejected", string(status), string(RequestPending), string(RequestAccepted), string(RequestRejected))
}

func SubmissionLifecycle(status SubmissionStatus) Lifecycle {
	return decision("Pending review", "Accepted", "Rejected", string(status), string(SubmissionPendingReview), string(SubmissionAccepted), string(SubmissionRejected))
}

func decision(pendingLabel, acceptedLabel, rejectedLabel, status, pending, accepted, rejected string) Lifecycle {
	switch status {
	case pending:
		return Lifecycle{{Label: pendingLabel, State: StepCurrent}, {Label: acceptedLabel}}
	case accepted:
		return Lifecycle{{Label: pendingLabel, State: StepDone}, {Label: acceptedLabel, State: StepDone}}
	case rejected:
		return Lifecycle{{Label: pendingLabel, State: StepDone}, {Label: rejectedLabel, State: StepFailed}}
	}
	return Lifecycle{{Label: pendingLabel}, {Label: acceptedLabel}}
}
