/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/signalfx/agent-test-harness/pkg/k8s/resource"
)

// agentConfigKey is the config map entry holding the agent configuration.
const agentConfigKey = "agent.yaml"

// replaceConfigMap renders the agent config into the stock config map
// manifest and recreates the config map. An existing config map is
// always deleted first so every deployment starts from the rendered
// state.
func (d *Deployer) replaceConfigMap(ctx context.Context) error {
	obj, err := loadObject(d.opts.ConfigMapPath, resource.KindConfigMap)
	if err != nil {
		return err
	}
	cm := obj.Raw.(*corev1.ConfigMap)

	doc, ok := cm.Data[agentConfigKey]
	if !ok {
		return fmt.Errorf("manifest %s has no %s entry", d.opts.ConfigMapPath, agentConfigKey)
	}
	rendered, err := renderAgentConfig([]byte(doc), d.opts)
	if err != nil {
		return err
	}
	cm.Data[agentConfigKey] = string(rendered)

	obj.EnsureNamespace(d.opts.Namespace)
	d.configMapName = obj.Name()

	monitorTypes := make([]string, 0, len(d.opts.Monitors))
	for _, m := range d.opts.Monitors {
		if t, ok := m["type"].(string); ok {
			monitorTypes = append(monitorTypes, t)
		}
	}
	slog.Info("creating config map",
		slog.String("name", d.configMapName),
		slog.String("observer", d.opts.Observer),
		slog.String("monitors", strings.Join(monitorTypes, ",")),
		slog.String("file", d.opts.ConfigMapPath))
	return d.resources.Replace(ctx, obj)
}

// deleteConfigMap deletes the agent config map if Deploy resolved one.
func (d *Deployer) deleteConfigMap(ctx context.Context) error {
	if d.configMapName == "" {
		return nil
	}
	slog.Info("deleting config map", slog.String("name", d.configMapName))
	return d.resources.Delete(ctx, resource.FromTyped(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: d.configMapName, Namespace: d.opts.Namespace},
	}))
}

// renderAgentConfig rewrites the embedded agent.yaml document for this
// deployment: the observers section is rebuilt from the observer type,
// the cluster dimension, reporting interval, and status host are pinned,
// backend endpoints are set when supplied, metricsToExclude is dropped,
// and the monitors list is replaced wholesale.
func renderAgentConfig(doc []byte, opts Options) ([]byte, error) {
	var conf map[string]any
	if err := yaml.Unmarshal(doc, &conf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", agentConfigKey, err)
	}
	if conf == nil {
		conf = map[string]any{}
	}

	delete(conf, "observers")
	if opts.Observer != "" {
		conf["observers"] = []any{observerConfig(opts.Observer)}
	}

	dims, ok := conf["globalDimensions"].(map[string]any)
	if !ok {
		dims = map[string]any{}
	}
	dims["kubernetes_cluster"] = opts.ClusterName
	conf["globalDimensions"] = dims

	conf["intervalSeconds"] = 5
	conf["sendMachineID"] = true
	conf["useFullyQualifiedHost"] = false
	conf["internalStatusHost"] = internalStatusHost()

	if opts.Backend != nil {
		conf["ingestUrl"] = fmt.Sprintf("http://%s:%d", opts.Backend.IngestHost, opts.Backend.IngestPort)
		conf["apiUrl"] = fmt.Sprintf("http://%s:%d", opts.Backend.APIHost, opts.Backend.APIPort)
	}

	delete(conf, "metricsToExclude")

	monitors := make([]any, 0, len(opts.Monitors))
	for _, m := range opts.Monitors {
		monitors = append(monitors, m)
	}
	conf["monitors"] = monitors

	return yaml.Marshal(conf)
}

// observerConfig returns the observer document for the agent config.
// The closed set covers the observers the nested cluster can satisfy;
// unknown types pass through with only their name.
func observerConfig(observer string) map[string]any {
	switch observer {
	case "k8s-api":
		return map[string]any{
			"type": observer,
			"kubernetesAPI": map[string]any{
				"authType":   "serviceAccount",
				"skipVerify": false,
			},
		}
	case "k8s-kubelet":
		return map[string]any{
			"type": observer,
			"kubeletAPI": map[string]any{
				"authType":   "serviceAccount",
				"skipVerify": true,
			},
		}
	case "docker":
		return map[string]any{
			"type":      observer,
			"dockerURL": "unix:///var/run/docker.sock",
		}
	default:
		return map[string]any{"type": observer}
	}
}
