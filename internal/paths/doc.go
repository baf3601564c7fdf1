// Provides platform-appropriate paths for the provisioner.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows. The tool name "mkimage" is used as the subdirectory
// under each base path.
package paths
