package roster

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/adp-scheduler/pkg/core/availability"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// Entry is one person as written in a roster file.
// Day keys accept full or three-letter names in any case.
type Entry struct {
	Name         string              `yaml:"name" validate:"required"`
	CanDrive     bool                `yaml:"canDrive"`
	MaxShifts    int                 `yaml:"maxShifts,omitempty" validate:"min=0,max=7"`
	Availability map[string][]string `yaml:"availability,omitempty"`
	Classes      map[string]string   `yaml:"classes,omitempty"`
}

// File is the top level of a roster file
type File struct {
	People []Entry `yaml:"people" validate:"required,min=1,dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadFromPath reads and validates a roster file
func LoadFromPath(path string) ([]availability.RawPerson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	return Parse(data)
}

// Parse decodes roster YAML into raw people
func Parse(data []byte) ([]availability.RawPerson, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse roster file: %w", err)
	}

	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("roster validation failed: %w", err)
	}

	people := make([]availability.RawPerson, 0, len(file.People))
	for i, entry := range file.People {
		raw, err := entry.toRaw()
		if err != nil {
			return nil, fmt.Errorf("invalid roster entry people[%d]: %w", i, err)
		}
		people = append(people, raw)
	}
	return people, nil
}

func (e Entry) toRaw() (availability.RawPerson, error) {
	raw := availability.RawPerson{
		Name:         e.Name,
		CanDrive:     e.CanDrive,
		MaxShifts:    e.MaxShifts,
		Availability: make(map[model.Day][]string, len(e.Availability)),
		Busy:         make(map[model.Day]string, len(e.Classes)),
	}
	for key, labels := range e.Availability {
		day, err := model.ParseDay(key)
		if err != nil {
			return availability.RawPerson{}, err
		}
		if labels == nil {
			labels = []string{}
		}
		raw.Availability[day] = labels
	}
	for key, classes := range e.Classes {
		day, err := model.ParseDay(key)
		if err != nil {
			return availability.RawPerson{}, err
		}
		raw.Busy[day] = classes
	}
	return raw, nil
}

// FromPeople converts resolved people back into roster entries, so a
// normalised roster can be written out
func FromPeople(people []model.Person) File {
	file := File{People: make([]Entry, 0, len(people))}
	for _, person := range people {
		entry := Entry{
			Name:         person.Name,
			CanDrive:     person.CanDrive,
			MaxShifts:    person.MaxShifts,
			Availability: make(map[string][]string, len(model.Week)),
		}
		for _, day := range model.Week {
			labels := make([]string, 0, len(person.Availability[day]))
			for _, label := range person.Availability[day] {
				labels = append(labels, string(label))
			}
			entry.Availability[day.String()] = labels
		}
		file.People = append(file.People, entry)
	}
	return file
}

// Marshal encodes a roster file as YAML
func Marshal(file File) ([]byte, error) {
	data, err := yaml.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode roster: %w", err)
	}
	return data, nil
}
