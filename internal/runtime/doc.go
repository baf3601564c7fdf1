// Package runtime manages provisioning containers backed by containerd.
//
// A [Runtime] connects to a containerd daemon and resolves base images
// either by pulling a reference from its registry or by importing a
// local OCI archive. Images are unpacked for the target platform and
// used to create containers with overlayfs snapshots.
//
// Each [Container] wraps a running containerd task. Commands can be
// executed inside the container, files can be copied in as tar streams,
// and the final filesystem state can be committed and exported as a new
// OCI archive with the image config the provisioner requests. When the
// container is no longer needed it should be destroyed to release its
// snapshot and task resources.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "mkimage")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	ctr, err := rt.StartContainer(ctx, "ubuntu:22.04", "provision-1", "linux/amd64")
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(ctx)
//
//	result, err := ctr.Exec(ctx, "/bin/sh", "echo hello", nil, "")
//	if err != nil {
//	    return err
//	}
//
//	if err := ctr.Export(ctx, "dist", runtime.ExportConfig{Cmd: []string{"/bin/bash"}}); err != nil {
//	    return err
//	}
package runtime
