// Package devwatch observes camera and microphone hotplug events over the
// udev netlink socket. It feeds the status view so an operator can see a
// capture device appear or vanish without polling.
package devwatch
