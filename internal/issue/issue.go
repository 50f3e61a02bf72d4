// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	DockerNotAvailableId Id = iota + 1
	DockerTooOldId
	MissingTokenId
	ContainerFailedId
	ConfigLoadFailedId
	LogFileNotWritableId
	InvalidImageId
	ImagePullFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation about the issue
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue with the glamour style at stylePath
// ("auto", "dark", "light" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
		for _, link := range i.extLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	if stylePath == "" {
		stylePath = "auto"
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	dockerNotAvailableIssue = &Issue{
		id: DockerNotAvailableId,
		mdMsg: `
# Docker is not available!

We could not talk to the Docker daemon, so no container can be started.

## Things you can try:
- Check that Docker is installed and running:
~~~
$ docker version
~~~

- Make sure your user can reach the daemon socket:
~~~
$ sudo usermod -aG docker $USER
~~~

- If the daemon runs on a robot, point ` + "`docker_host`" + ` at it in your config:
~~~cue
docker_host: "duckiebot"
~~~`,
		extLinks: []HttpLink{"https://docs.docker.com/engine/install/"},
	}

	dockerTooOldIssue = &Issue{
		id: DockerTooOldId,
		mdMsg: `
# Docker is too old!

The Docker engine reported a server version older than the minimum this
command supports (20.10.0).

## Things you can try:
- Upgrade Docker Engine on the host running the daemon
- Check which daemon you are talking to:
~~~
$ docker version --format '{{.Server.Version}}'
$ echo $DOCKER_HOST
~~~`,
		extLinks: []HttpLink{"https://docs.docker.com/engine/install/"},
	}

	missingTokenIssue = &Issue{
		id: MissingTokenId,
		mdMsg: `
# No Duckietown token configured!

The build utilities container needs your dt1 token to talk to the
Duckietown servers.

## Things you can try:
- Export it for this shell:
~~~
$ export DT1_TOKEN=dt1-...
~~~

- Or store it in your config file:
~~~cue
dt1_token: "dt1-..."
~~~`,
		docLinks: []HttpLink{"https://hub.duckietown.com/profile/"},
	}

	containerFailedIssue = &Issue{
		id: ContainerFailedId,
		mdMsg: `
# The build utilities container failed!

The container ran but exited with a non-zero return code. Everything it
printed was saved to the log file shown above.

## Things you can try:
- Read the log file for the actual error
- Re-run with a shell inside the image to investigate:
~~~
$ dt-build-utils run --shell
~~~

- Make sure you have the latest image (do not pass ` + "`--no-pull`" + `)`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file is missing or unreadable, or its content does not match
the schema. The error below names the file and, for schema errors, the field.

## Things you can try:
- Check the path given with ` + "`--config`" + `, or show where the default file lives:
~~~
$ dt-build-utils config path
~~~

- Print the effective configuration:
~~~
$ dt-build-utils config dump
~~~

- Recreate a default file:
~~~
$ dt-build-utils config init
~~~`,
	}

	logFileNotWritableIssue = &Issue{
		id: LogFileNotWritableId,
		mdMsg: `
# Cannot write the log file!

The log file could not be created, not even through sudo.

## Things you can try:
- Point ` + "`log_dir`" + ` at a directory you own:
~~~cue
log_dir: "/home/duckie/logs"
~~~

- Fix the permissions of the existing log directory`,
	}

	invalidImageIssue = &Issue{
		id: InvalidImageId,
		mdMsg: `
# Invalid image reference!

The image given with ` + "`--image`" + ` (after variable expansion) is not a
valid Docker reference.

## Things you can try:
- Use the form ` + "`registry/namespace/name:tag`" + `
- Check that ` + "`AIDO_REGISTRY`" + ` is set to a registry host, not a URL`,
	}

	imagePullFailedIssue = &Issue{
		id: ImagePullFailedId,
		mdMsg: `
# Failed to pull the image!

## Things you can try:
- Check your network connection
- Log into the registry, or add credentials to your config:
~~~cue
docker_credentials: [{registry: "docker.io", username: "duckie", secret: "..."}]
~~~

- Skip pulling and use the local copy:
~~~
$ dt-build-utils run --no-pull
~~~`,
	}

	issues = map[Id]*Issue{
		dockerNotAvailableIssue.Id(): dockerNotAvailableIssue,
		dockerTooOldIssue.Id():       dockerTooOldIssue,
		missingTokenIssue.Id():       missingTokenIssue,
		containerFailedIssue.Id():    containerFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		logFileNotWritableIssue.Id(): logFileNotWritableIssue,
		invalidImageIssue.Id():       invalidImageIssue,
		imagePullFailedIssue.Id():    imagePullFailedIssue,
	}
)

// Values returns every catalogued issue ordered by id.
func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
