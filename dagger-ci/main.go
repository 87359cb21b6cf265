// CI pipeline for richdoc: tests, multi-arch images and publishing.
//
// Functions are called from the dagger CLI, for example
// `dagger call test --source=.` or `dagger call build-local --name=richdoc.tar --source=.`.

package main

import (
	"context"
	"dagger/richdoc/internal/dagger"
	"fmt"
)

type Richdoc struct{}

func (m *Richdoc) GoBuildEnv(source *dagger.Directory) *dagger.Container {
	goCache := dag.CacheVolume("go")
	return dag.Container().
		From("golang:alpine").
		WithDirectory("/src", source).
		WithWorkdir("/src").
		WithEnvVariable("GOOS", "linux").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", goCache).
		WithExec([]string{"go", "mod", "tidy"})
}

// Test запускает тесты модуля.
func (m *Richdoc) Test(ctx context.Context, source *dagger.Directory) (string, error) {
	return m.GoBuildEnv(source).
		WithExec([]string{"go", "vet", "./..."}).
		WithExec([]string{"go", "test", "./..."}).
		Stdout(ctx)
}

// Docs генерирует справочник ошибок API и схемы документа.
func (m *Richdoc) Docs(source *dagger.Directory) *dagger.Directory {
	return m.GoBuildEnv(source).
		WithExec([]string{"mkdir", "-p", "/docs"}).
		WithExec([]string{"go", "run", "./cmd/docsgen", "-kind", "errors", "-out", "/docs/api_errors.md"}).
		WithExec([]string{"go", "run", "./cmd/docsgen", "-kind", "schema", "-out", "/docs/schema.md"}).
		Directory("/docs")
}

func (m *Richdoc) BackEnv(platform dagger.Platform, appBin *dagger.File, docs *dagger.Directory) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{
		Platform: platform,
	}).
		From("alpine").
		WithEnvVariable("TZ", "Europe/Moscow").
		WithExec([]string{"apk", "add", "--no-cache", "tzdata"}).
		WithWorkdir("/app").
		WithFile("/app/richdoc", appBin).
		WithDirectory("/app/docs", docs).
		WithEnvVariable("RICHDOC_DATABASE_PATH", "/app/data/richdoc.db").
		WithExposedPort(8080).
		WithEntrypoint([]string{"/app/richdoc"}).
		WithDefaultArgs([]string{"serve"})
}

func (m *Richdoc) Build(version string, source *dagger.Directory) []*dagger.Container {
	buildMatrix := []struct {
		Arch     string
		BinName  string
		Platform dagger.Platform
	}{
		{
			Arch:     "amd64",
			BinName:  "/build/richdoc-linux",
			Platform: dagger.Platform("linux/amd64"),
		},
		{
			Arch:     "arm64",
			BinName:  "/build/richdoc-linux-arm64",
			Platform: dagger.Platform("linux/arm64/v8"),
		},
	}

	docs := m.Docs(source)

	var images []*dagger.Container
	for _, buildParam := range buildMatrix {
		builder := m.GoBuildEnv(source).
			WithEnvVariable("GOARCH", buildParam.Arch).
			WithExec([]string{"go", "build", "-o", buildParam.BinName, "-ldflags", fmt.Sprintf("-s -w -X main.version=%s", version), "./cmd/richdoc"})

		image := m.BackEnv(buildParam.Platform, builder.File(buildParam.BinName), docs).
			WithLabel("org.opencontainers.image.source", "https://github.com/aisa-it/richdoc").
			WithAnnotation("org.opencontainers.image.source", "https://github.com/aisa-it/richdoc")
		images = append(images, image)
	}
	return images
}

func (m *Richdoc) Publish(
	ctx context.Context,
	images []*dagger.Container,
	registrySecret *dagger.Secret,
	registryUser string,
	imageName string,
) (string, error) {
	return dag.Container().
		WithRegistryAuth("ghcr.io", registryUser, registrySecret).
		Publish(ctx, "ghcr.io/"+imageName, dagger.ContainerPublishOpts{PlatformVariants: images})
}

func (m *Richdoc) Export(
	ctx context.Context,
	images []*dagger.Container,
	imageName string,
) (string, error) {
	return dag.Container().
		Export(ctx, imageName, dagger.ContainerExportOpts{PlatformVariants: images})
}

func (m *Richdoc) BuildLocal(ctx context.Context, name string, source *dagger.Directory) (string, error) {
	return m.Export(ctx, m.Build("v0.1.0", source), name)
}

func (m *Richdoc) BuildApp(ctx context.Context, version string, source *dagger.Directory,
	registrySecret *dagger.Secret,
	registryUser string,
	imageName string,
) error {
	if _, err := m.Test(ctx, source); err != nil {
		return err
	}

	back := m.Build(version, source)
	for _, tag := range []string{version, "latest"} {
		ref, err := m.Publish(ctx, back, registrySecret, registryUser, fmt.Sprintf("%s:%s", imageName, tag))
		if err != nil {
			return err
		}
		fmt.Println(ref)
	}
	return nil
}
