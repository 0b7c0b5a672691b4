package version

import "fmt"

// Next computes the version that follows current under intent.
//
// Incrementing a numeric component drops the build metadata; releasing or
// advancing a pre-release keeps it. A non-empty metadata replaces the build metadata of the result. Failures
// are returned as *TransitionError.
func Next(current Version, intent Intent, metadata string) (Version, error) {
	next, err := transition(current, intent)
	if err != nil {
		return Version{}, err
	}
	if metadata != "" {
		next = next.WithBuild(metadata)
	}
	return next, nil
}

func transition(current Version, intent Intent) (Version, error) {
	fail := func(kind error, detail string) error {
		return &TransitionError{Kind: kind, From: current, Intent: intent, Detail: detail}
	}

	switch intent.Level {
	case LevelRelease:
		return current.Stable(), nil

	case LevelPatch:
		if current.IsPrerelease() {
			return current.Stable(), nil
		}
		return Version{Major: current.Major, Minor: current.Minor, Patch: current.Patch + 1}, nil

	case LevelMinor:
		return Version{Major: current.Major, Minor: current.Minor + 1}, nil

	case LevelMajor:
		return Version{Major: current.Major + 1}, nil

	case LevelPrerelease:
		return nextPrerelease(current, intent.Channel, fail)

	case LevelExplicit:
		if intent.Target.Compare(current) <= 0 {
			return Version{}, fail(ErrNonMonotonicVersion, fmt.Sprintf("%s is not greater than %s", intent.Target.Bare(), current.Bare()))
		}
		return intent.Target.clone(), nil
	}

	return Version{}, fail(ErrInvalidIntent, "")
}

// nextPrerelease applies the channel rules:
//
//	stable           -> patch+1, <channel>.1, build metadata dropped
//	same channel     -> counter+1 (missing counter counts as 0)
//	lower channel    -> <channel>.1
//	higher channel   -> ErrInvalidDowngrade
func nextPrerelease(current Version, channel string, fail func(error, string) error) (Version, error) {
	if !IsChannel(channel) {
		return Version{}, fail(ErrInvalidIntent, fmt.Sprintf("unknown pre-release channel %q", channel))
	}

	stage, err := current.Stage()
	if err != nil {
		return Version{}, fail(ErrUnsupportedPrerelease, current.Bare())
	}

	next := current.clone()
	target := Stage{Name: channel}

	switch {
	case stage.IsStable():
		next.Patch++
		next.Pre = []string{channel, "1"}
		next.Build = nil
		return next, nil

	case stage.Name == channel:
		next.Pre = []string{channel, fmt.Sprint(stage.Counter + 1)}
		return next, nil

	case stage.Rank() < target.Rank():
		next.Pre = []string{channel, "1"}
		return next, nil
	}

	return Version{}, fail(ErrInvalidDowngrade, fmt.Sprintf("%s is past %s", stage.Name, channel))
}
