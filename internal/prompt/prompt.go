// Package prompt asks the operator for the decisions a conversion run needs.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"tasnim.dev/nat-convert/internal/natconv"
)

// ErrInterrupted is returned when the operator hits Ctrl+C at a prompt.
var ErrInterrupted = errors.New("interrupted")

type Prompter interface {
	// SelectIndex lists labels numbered from 1 and returns the raw entry.
	SelectIndex(msg string, labels []string) (string, error)
	Confirm(msg string, def bool) (bool, error)
	SelectSubnet(msg string, subnetIDs []string) (string, error)
	SelectDecommission(msg string, instanceIDs []string) (natconv.Decommission, error)
}

// Survey prompts on the terminal.
type Survey struct {
	opts []survey.AskOpt
}

func NewSurvey(opts ...survey.AskOpt) *Survey {
	return &Survey{opts: opts}
}

func (s *Survey) ask(p survey.Prompt, response any, opts ...survey.AskOpt) error {
	err := survey.AskOne(p, response, append(s.opts, opts...)...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return err
}

// NumberedList renders labels as "[n] label" lines.
func NumberedList(labels []string) string {
	var b strings.Builder
	for i, l := range labels {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, l)
	}
	return b.String()
}

func (s *Survey) SelectIndex(msg string, labels []string) (string, error) {
	var answer string
	err := s.ask(&survey.Input{
		Message: msg,
		Help:    NumberedList(labels),
	}, &answer)
	return strings.TrimSpace(answer), err
}

func (s *Survey) Confirm(msg string, def bool) (bool, error) {
	confirmed := def
	err := s.ask(&survey.Confirm{Message: msg, Default: def}, &confirmed)
	return confirmed, err
}

func (s *Survey) SelectSubnet(msg string, subnetIDs []string) (string, error) {
	if len(subnetIDs) == 0 {
		return "", natconv.ErrNoPublicSubnet
	}
	var choice string
	err := s.ask(&survey.Select{
		Message: msg,
		Options: subnetIDs,
		Default: subnetIDs[0],
	}, &choice)
	return choice, err
}

// DecommissionOptions are the choices offered for the replaced NAT instances,
// in the order they are listed.
var DecommissionOptions = []string{
	"Stop them",
	"Terminate them",
	"Do nothing to them",
}

// DecommissionFromOption maps a DecommissionOptions entry to its action.
func DecommissionFromOption(option string) (natconv.Decommission, error) {
	switch option {
	case DecommissionOptions[0]:
		return natconv.DecommissionStop, nil
	case DecommissionOptions[1]:
		return natconv.DecommissionTerminate, nil
	case DecommissionOptions[2]:
		return natconv.DecommissionNone, nil
	}
	return natconv.DecommissionNone, fmt.Errorf("unknown option %q", option)
}

func (s *Survey) SelectDecommission(msg string, instanceIDs []string) (natconv.Decommission, error) {
	var choice string
	err := s.ask(&survey.Select{
		Message: msg,
		Options: DecommissionOptions,
		Default: DecommissionOptions[2],
		Help:    "Instances: " + strings.Join(instanceIDs, ", "),
	}, &choice)
	if err != nil {
		return natconv.DecommissionNone, err
	}
	return DecommissionFromOption(choice)
}
