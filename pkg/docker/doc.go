// Package docker adapts the Docker Engine API for the cluster harness.
//
// Two engines are in play during a test session: the host engine that the
// minikube container itself runs on, and the nested engine inside that
// container (reachable on TCP 2375) where the registry, the agent image,
// and test service images live. Both are driven through the same Engine
// interface, so lifecycle code does not care which side it is talking to
// and tests can substitute a fake.
package docker
