package dsk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-judim/internal/disk"
	"github.com/deploymenttheory/go-judim/internal/parsers/cpm"
	core "github.com/deploymenttheory/go-judim/internal/services"
	"github.com/deploymenttheory/go-judim/pkg/app"
	"github.com/deploymenttheory/go-judim/pkg/services"
)

// HandleInfo summarizes the container, geometry and usage of an image
func HandleInfo(ctx *app.Context, req *InfoRequest) (*InfoResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	filesystem, err := openFilesystem(ctx, req.ImagePath)
	if err != nil {
		return nil, err
	}

	g := filesystem.Geometry()
	image := filesystem.Image()
	resp := &InfoResponse{
		ImagePath:   req.ImagePath,
		Format:      string(image.Format()),
		Geometry:    g.Params(),
		ImageSize:   len(image.Bytes()),
		BlockSize:   g.BlockSize(),
		PointerBits: int(g.PointerWidth()) * 8,
		ExtentMask:  g.ExtentMask(),
		SkewTable:   g.SkewTable(),
		Usage:       filesystem.Usage(),
	}
	if container, ok := image.(*disk.DSKImage); ok {
		resp.Creator = container.Creator()
		resp.Tracks = container.Tracks()
	}
	for _, item := range filesystem.List(core.ListDeleted()) {
		if item.Deleted {
			resp.DeletedRecovered++
		}
	}
	return resp, nil
}

// HandleList lists the directory of an image
func HandleList(ctx *app.Context, req *ListRequest) (*ListResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	filesystem, err := openFilesystem(ctx, req.ImagePath)
	if err != nil {
		return nil, err
	}

	mode := core.ListUser(req.User)
	mode.Deleted = req.Deleted
	files := filesystem.List(mode)
	if files == nil {
		files = []core.FileItem{}
	}
	return &ListResponse{
		ImagePath: req.ImagePath,
		Files:     files,
		Usage:     filesystem.Usage(),
	}, nil
}

// HandleGet writes one file of an image to the host
func HandleGet(ctx *app.Context, req *GetRequest) (*GetResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fn, err := cpm.ParseFileName(req.Name)
	if err != nil {
		return nil, app.WrapError("invalid file name", err)
	}

	disks, err := ctx.DiskService()
	if err != nil {
		return nil, err
	}
	data, err := disks.Get(ctx, req.ImagePath, req.Name, services.GetOptions{
		Deleted:   req.Deleted,
		ToTap:     req.ToTap,
		NoAutorun: req.NoAutorun,
	})
	if err != nil {
		return nil, app.WrapError(fmt.Sprintf("failed to read %s", req.Name), err)
	}

	name := cpm.FormatName(fn.Name, fn.Extension)
	output := req.Output
	if output == "" {
		output = name
		if req.ToTap {
			output = strings.ReplaceAll(name, ".", "_") + ".tap"
		}
	}
	if err := services.WriteFile(output, data); err != nil {
		return nil, app.WrapError("failed to write file", err)
	}

	ctx.Log(fmt.Sprintf("Copied %s to %s", name, output))
	return &GetResponse{Name: name, Output: output, Size: len(data)}, nil
}

// HandleCopy copies several files of an image into a host directory
func HandleCopy(ctx *app.Context, req *CopyRequest) (*CopyResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	disks, err := ctx.DiskService()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := ctx.WithTimeout(ctx.DefaultTimeout)
	defer cancel()

	ctx.Progress(app.ProgressUpdate{Message: "Copying files...", Total: len(req.Names)})
	files, err := disks.Copy(runCtx, req.ImagePath, req.Names, filepath.Clean(req.Directory))
	if err != nil {
		return nil, app.WrapError("failed to copy files", err)
	}
	ctx.Progress(app.ProgressUpdate{Message: "Complete", Completed: len(files), Total: len(req.Names)})

	return &CopyResponse{ImagePath: req.ImagePath, Files: files}, nil
}

// HandlePut adds a host file to an image
func HandlePut(ctx *app.Context, req *PutRequest) (*PutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(req.HostPath)
	if err != nil {
		return nil, app.WrapError("failed to read host file", err)
	}
	name := req.As
	if name == "" {
		name = filepath.Base(req.HostPath)
	}

	disks, err := ctx.DiskService()
	if err != nil {
		return nil, err
	}
	result, err := disks.Put(ctx, req.ImagePath, []services.HostFile{{Name: name, Data: data}})
	if err != nil {
		return nil, app.WrapError(fmt.Sprintf("failed to add %s", name), err)
	}

	ctx.Log(fmt.Sprintf("Added %s to %s", name, req.ImagePath))
	return &PutResponse{PutResult: *result}, nil
}

// HandlePutTape copies tape entries onto an image in header+data form
func HandlePutTape(ctx *app.Context, req *PutTapeRequest) (*PutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	disks, err := ctx.DiskService()
	if err != nil {
		return nil, err
	}
	result, err := disks.PutTape(ctx, req.ImagePath, req.TapePath, req.Indices, req.NoAutorun)
	if err != nil {
		return nil, app.WrapError("failed to copy tape entries", err)
	}

	ctx.Log(fmt.Sprintf("Added %d tape entries to %s", len(result.Added), req.ImagePath))
	return &PutResponse{PutResult: *result}, nil
}

// HandleFormat creates a blank image with the configured geometry
func HandleFormat(ctx *app.Context, req *FormatRequest) (*FormatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	disks, err := ctx.DiskService()
	if err != nil {
		return nil, err
	}
	filesystem, err := disks.Format(ctx, req.ImagePath, services.FormatOptions{
		Format: disk.ImageFormat(strings.ToLower(req.Format)),
		Force:  req.Force,
	})
	if err != nil {
		return nil, app.WrapError("failed to format image", err)
	}

	return &FormatResponse{
		ImagePath: req.ImagePath,
		Format:    string(filesystem.Image().Format()),
		Usage:     filesystem.Usage(),
	}, nil
}

func openFilesystem(ctx *app.Context, path string) (*core.DiskFilesystem, error) {
	disks, err := ctx.DiskService()
	if err != nil {
		return nil, err
	}
	filesystem, err := disks.Open(ctx, path)
	if err != nil {
		return nil, app.WrapError("failed to read image", err)
	}
	return filesystem, nil
}
