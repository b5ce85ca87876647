// Package anyeval evaluates trained reinforcement learning
// policies by running many episodes in parallel and
// reporting aggregate scores back to a training loop.
package anyeval
