package artifactstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"insurance-prediction-service/internal/config"
	"insurance-prediction-service/internal/core/domain"
)

// ConfigMapSource reads artifacts stored in Kubernetes ConfigMaps, addressed as
// configmap://namespace/name/key. configmap://name/key uses the default namespace.
type ConfigMapSource struct {
	client    kubernetes.Interface
	defaultNS string
}

// NewConfigMapSource creates a source from in-cluster config, an explicit kubeconfig,
// or ~/.kube/config, in that order of preference.
func NewConfigMapSource(cfg *config.KubernetesConfig) (*ConfigMapSource, error) {
	var restCfg *rest.Config
	var err error

	if cfg.InCluster {
		restCfg, err = rest.InClusterConfig()
	} else if cfg.KubeConfigPath != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", cfg.KubeConfigPath)
	} else {
		home, _ := os.UserHomeDir()
		restCfg, err = clientcmd.BuildConfigFromFlags("", filepath.Join(home, ".kube", "config"))
	}
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	client, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create k8s client: %w", err)
	}

	return NewConfigMapSourceFromClient(client, cfg.Namespace), nil
}

func NewConfigMapSourceFromClient(client kubernetes.Interface, defaultNS string) *ConfigMapSource {
	if defaultNS == "" {
		defaultNS = "default"
	}
	return &ConfigMapSource{client: client, defaultNS: defaultNS}
}

func (s *ConfigMapSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	namespace, name, key, err := s.parse(uri)
	if err != nil {
		return nil, err
	}

	cm, err := s.client.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: configmap %s/%s", domain.ErrArtifactNotFound, namespace, name)
		}
		return nil, fmt.Errorf("get configmap %s/%s: %w", namespace, name, err)
	}

	if data, ok := cm.BinaryData[key]; ok {
		return data, nil
	}
	if data, ok := cm.Data[key]; ok {
		return []byte(data), nil
	}
	return nil, fmt.Errorf("%w: key %q in configmap %s/%s", domain.ErrArtifactNotFound, key, namespace, name)
}

func (s *ConfigMapSource) parse(uri string) (namespace, name, key string, err error) {
	prefix := SchemeConfigMap + "://"
	if !strings.HasPrefix(strings.ToLower(uri), prefix) {
		return "", "", "", fmt.Errorf("%w: %q is not a configmap uri", domain.ErrUnsupportedSource, uri)
	}
	parts := strings.Split(uri[len(prefix):], "/")
	for _, p := range parts {
		if p == "" {
			return "", "", "", fmt.Errorf("%w: malformed configmap uri %q", domain.ErrUnsupportedSource, uri)
		}
	}
	switch len(parts) {
	case 2:
		return s.defaultNS, parts[0], parts[1], nil
	case 3:
		return parts[0], parts[1], parts[2], nil
	default:
		return "", "", "", fmt.Errorf("%w: configmap uri %q must be configmap://[namespace/]name/key", domain.ErrUnsupportedSource, uri)
	}
}
