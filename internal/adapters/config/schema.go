package config

// Buildfile represents the structure of the bild.yaml configuration file.
type Buildfile struct {
	Version string              `yaml:"version"`
	Default []string            `yaml:"default"`
	Vars    map[string]string   `yaml:"vars"`
	Tasks   map[string]*TaskDTO `yaml:"tasks"`
}

// TaskDTO represents a task definition in the buildfile.
type TaskDTO struct {
	Description string    `yaml:"description"`
	Deps        []string  `yaml:"deps"`
	Steps       []StepDTO `yaml:"steps"`
}

// StepDTO is one step of a task. Exactly one of Run, Fetch, Mkdir, Remove,
// Copy and Write is set; Log may accompany any of them or stand alone.
type StepDTO struct {
	Run       []string          `yaml:"run"`
	Dir       string            `yaml:"dir"`
	Env       map[string]string `yaml:"env"`
	Classpath []string          `yaml:"classpath"`

	Fetch  *FetchDTO `yaml:"fetch"`
	Mkdir  string    `yaml:"mkdir"`
	Remove string    `yaml:"remove"`
	Copy   *CopyDTO  `yaml:"copy"`
	Write  *WriteDTO `yaml:"write"`

	Log string `yaml:"log"`
}

// FetchDTO downloads URL into the directory Into. An empty Into means the
// shared jar cache.
type FetchDTO struct {
	URL  string `yaml:"url"`
	Into string `yaml:"into"`
}

// CopyDTO copies the directory tree From into To.
type CopyDTO struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// WriteDTO writes Content to the file at Path, e.g. a jar manifest.
type WriteDTO struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}
