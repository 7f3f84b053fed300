package streaming

import (
	"strings"
	"testing"

	"github.com/conveyor-data/conveyor-go/internal/domain"
)

func mustScript(t *testing.T, uri string) domain.ScriptFile {
	t.Helper()
	f, err := domain.ParseScriptFile(uri)
	if err != nil {
		t.Fatalf("ParseScriptFile(%q): %v", uri, err)
	}
	return f
}

func testParams(t *testing.T, amiVersion string, withReducer bool) CommandParams {
	t.Helper()
	p := CommandParams{
		Mapper:     mustScript(t, "s3://bucket/word_mapper.py"),
		AMIVersion: amiVersion,
		Input:      domain.S3Path{Bucket: "bucket", Key: "in"},
		Output:     domain.S3Path{Bucket: "bucket", Key: "out"},
	}
	if withReducer {
		reducer := mustScript(t, "s3://bucket/word_reducer.py")
		p.Reducer = &reducer
	}
	return p
}

func TestFamilyForAMI(t *testing.T) {
	legacy := []string{"1.0", "1.0.3", "2", "2.4.0"}
	for _, v := range legacy {
		if got := familyForAMI(v); got != hadoop1Family {
			t.Fatalf("familyForAMI(%q)=%v, want hadoop1Family", v, got)
		}
	}
	modern := []string{"3.1.0", "4.1.0", "10.0", "", "nonsense"}
	for _, v := range modern {
		if got := familyForAMI(v); got != hadoop2Family {
			t.Fatalf("familyForAMI(%q)=%v, want hadoop2Family", v, got)
		}
	}
}

func TestBuildCommandHadoop1MapperOnly(t *testing.T) {
	got := BuildCommand(testParams(t, "2.4.0", false))
	want := "/home/hadoop/contrib/streaming/hadoop-streaming.jar," +
		"-output,s3://bucket/out,-input,s3://bucket/in," +
		"-mapper,s3://bucket/word_mapper.py"
	if got != want {
		t.Fatalf("BuildCommand()=\n%s\nwant\n%s", got, want)
	}
}

func TestBuildCommandHadoop1WithReducer(t *testing.T) {
	got := BuildCommand(testParams(t, "1.0.3", true))
	want := "/home/hadoop/contrib/streaming/hadoop-streaming.jar," +
		"-output,s3://bucket/out,-input,s3://bucket/in," +
		"-mapper,s3://bucket/word_mapper.py,-reducer,s3://bucket/word_reducer.py"
	if got != want {
		t.Fatalf("BuildCommand()=\n%s\nwant\n%s", got, want)
	}
}

func TestBuildCommandHadoop2WithReducer(t *testing.T) {
	got := BuildCommand(testParams(t, "4.1.0", true))
	want := "/home/hadoop/contrib/streaming/hadoop-streaming.jar," +
		`-files,s3://bucket/word_mapper.py\\,s3://bucket/word_reducer.py,` +
		"-output,s3://bucket/out,-input,s3://bucket/in," +
		"-mapper,word_mapper.py,-reducer,word_reducer.py"
	if got != want {
		t.Fatalf("BuildCommand()=\n%s\nwant\n%s", got, want)
	}
}

func TestBuildCommandHadoop2MapperOnly(t *testing.T) {
	got := BuildCommand(testParams(t, "3.1.0", false))
	want := "/home/hadoop/contrib/streaming/hadoop-streaming.jar," +
		"-files,s3://bucket/word_mapper.py," +
		"-output,s3://bucket/out,-input,s3://bucket/in," +
		"-mapper,word_mapper.py"
	if got != want {
		t.Fatalf("BuildCommand()=\n%s\nwant\n%s", got, want)
	}
}

// Hadoop params are generic options: they must sit between the jar and every
// other token, in the order the caller gave them.
func TestHadoopParamsPrecedeOptions(t *testing.T) {
	for _, version := range []string{"2.4.0", "4.1.0"} {
		p := testParams(t, version, true)
		p.HadoopParams = []string{"-D", "mapred.reduce.tasks=4"}
		got := BuildCommand(p)

		prefix := StreamingJarPath + ",-D,mapred.reduce.tasks=4,"
		if !strings.HasPrefix(got, prefix) {
			t.Fatalf("ami %s: command %q does not start with %q", version, got, prefix)
		}
		if strings.Index(got, "mapred.reduce.tasks=4") > strings.Index(got, "-output") {
			t.Fatalf("ami %s: hadoop params after -output: %q", version, got)
		}
	}
}

func TestJarIsFirstToken(t *testing.T) {
	got := BuildCommand(testParams(t, "4.1.0", true))
	if first := strings.SplitN(got, ",", 2)[0]; first != StreamingJarPath {
		t.Fatalf("first token=%q, want %q", first, StreamingJarPath)
	}
}

// The files list keeps the literal two-backslash escape so the launcher can
// tell the file separator from the token separator.
func TestFileListEscape(t *testing.T) {
	got := BuildCommand(testParams(t, "4.1.0", true))
	escaped := `s3://bucket/word_mapper.py\\,s3://bucket/word_reducer.py`
	if !strings.Contains(got, escaped) {
		t.Fatalf("command %q missing escaped file list %q", got, escaped)
	}
}

func TestReducerTokensToggleTogether(t *testing.T) {
	without := BuildCommand(testParams(t, "4.1.0", false))
	if strings.Contains(without, "-reducer") {
		t.Fatalf("no reducer configured but -reducer emitted: %q", without)
	}
	if strings.Contains(without, "word_reducer.py") {
		t.Fatalf("no reducer configured but reducer file emitted: %q", without)
	}

	with := BuildCommand(testParams(t, "4.1.0", true))
	if !strings.Contains(with, "-reducer,word_reducer.py") {
		t.Fatalf("reducer option missing: %q", with)
	}
	if !strings.Contains(with, `\\,s3://bucket/word_reducer.py`) {
		t.Fatalf("reducer missing from files list: %q", with)
	}
}

func TestMapperRepresentationPerFamily(t *testing.T) {
	legacy := BuildCommand(testParams(t, "2.4.0", false))
	if !strings.Contains(legacy, "-mapper,s3://bucket/word_mapper.py") {
		t.Fatalf("legacy family must reference the mapper by address: %q", legacy)
	}

	modern := BuildCommand(testParams(t, "4.1.0", false))
	if !strings.Contains(modern, "-mapper,word_mapper.py") {
		t.Fatalf("modern family must reference the mapper by base filename: %q", modern)
	}
	if strings.Contains(modern, "-mapper,s3://") {
		t.Fatalf("modern family must not reference the mapper by address: %q", modern)
	}
	if !strings.Contains(modern, "-files,s3://bucket/word_mapper.py") {
		t.Fatalf("modern family must declare the mapper address via -files: %q", modern)
	}
}

// Version strings without a separator route to the modern family as a whole.
func TestMalformedVersionRoutesModern(t *testing.T) {
	got := BuildCommand(testParams(t, "unversioned", false))
	if !strings.Contains(got, "-files,") {
		t.Fatalf("malformed version should take the modern layout: %q", got)
	}
}
