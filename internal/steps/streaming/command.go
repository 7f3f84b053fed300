package streaming

import (
	"strings"

	"github.com/conveyor-data/conveyor-go/internal/domain"
)

// StreamingJarPath is where EMR AMIs ship the streaming launcher jar.
const StreamingJarPath = "/home/hadoop/contrib/streaming/hadoop-streaming.jar"

// fileListSeparator joins -files entries. The whole command is flattened to
// one comma-joined string, so the inner comma is escaped with two backslashes
// to keep the launcher from splitting the file list apart.
const fileListSeparator = `\\,`

type hadoopFamily int

const (
	// hadoop1Family covers AMI major versions 1 and 2: scripts are
	// referenced by their full address.
	hadoop1Family hadoopFamily = iota
	// hadoop2Family covers every other AMI: script addresses are declared
	// via -files and referenced by base filename. Unknown and malformed
	// versions land here so future AMIs keep working.
	hadoop2Family
)

func familyForAMI(amiVersion string) hadoopFamily {
	major, _, _ := strings.Cut(amiVersion, ".")
	switch major {
	case "1", "2":
		return hadoop1Family
	}
	return hadoop2Family
}

// CommandParams are the resolved inputs for one streaming launcher command.
type CommandParams struct {
	Mapper       domain.ScriptFile
	Reducer      *domain.ScriptFile
	AMIVersion   string
	Input        domain.S3Path
	Output       domain.S3Path
	HadoopParams []string
}

// BuildCommand renders the comma-joined streaming launcher command string.
//
// Generic options (hadoop params, -files) must precede command options: the
// launcher accepts the wrong order without complaint and then runs a
// misconfigured job.
func BuildCommand(p CommandParams) string {
	generic, scripts := familyForAMI(p.AMIVersion).scriptTokens(p.Mapper, p.Reducer)

	command := make([]string, 0, 12+len(p.HadoopParams)+len(generic))
	command = append(command, StreamingJarPath)
	command = append(command, p.HadoopParams...)
	command = append(command, generic...)

	command = append(command, "-output", p.Output.URI())
	command = append(command, "-input", p.Input.URI())
	command = append(command, scripts...)

	return strings.Join(command, ",")
}

// scriptTokens returns the generic option tokens and the command option
// tokens a family uses to reference the mapper and reducer.
func (f hadoopFamily) scriptTokens(mapper domain.ScriptFile, reducer *domain.ScriptFile) (generic []string, options []string) {
	if f == hadoop1Family {
		options = append(options, "-mapper", mapper.URI())
		if reducer != nil {
			options = append(options, "-reducer", reducer.URI())
		}
		return nil, options
	}

	files := []string{mapper.URI()}
	options = append(options, "-mapper", mapper.BaseFilename())
	if reducer != nil {
		files = append(files, reducer.URI())
		options = append(options, "-reducer", reducer.BaseFilename())
	}
	generic = []string{"-files", strings.Join(files, fileListSeparator)}
	return generic, options
}
