// Package capture owns the camera and microphone boundary.
//
// Default implementations shell out to ffmpeg: single v4l2 frame grabs for
// the camera and one fixed-duration ALSA recording for the microphone, so
// the device node is held only for the duration of each command and is
// released on every exit path, including cancellation (the in-flight ffmpeg
// process is killed with the context). Flows consume the FrameSource and
// Recorder interfaces; tests substitute fakes.
package capture
